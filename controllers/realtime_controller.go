package controllers

import (
	"net/http"
	"strings"

	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/gin-gonic/gin"
)

// StreamChanges handles GET /api/v1/realtime?table=operations,documents
func StreamChanges(c *gin.Context) {
	feed := realtime.GetFeed()
	if feed == nil {
		respondError(c, http.StatusServiceUnavailable, "REALTIME_UNAVAILABLE", "Change feed is not running")
		return
	}

	var tables []string
	for _, value := range c.QueryArray("table") {
		for _, table := range strings.Split(value, ",") {
			if table = strings.TrimSpace(table); table != "" {
				tables = append(tables, table)
			}
		}
	}

	realtime.ServeWs(feed, tables, c.Writer, c.Request)
}
