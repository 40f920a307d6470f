package main

import (
	"github.com/bookyourdock/bookyourdock-api/controllers"
	"github.com/bookyourdock/bookyourdock-api/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter builds the gin engine with every API route
func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS(), middleware.RequestID())
	registerRoutes(router)
	return router
}

func registerRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		v1.GET("/carriers", controllers.ListCarriers)
		v1.POST("/carriers", controllers.CreateCarrier)

		appointments := v1.Group("/appointments")
		{
			appointments.GET("/time-slots", controllers.ListTimeSlots)
			appointments.GET("", controllers.ListAppointments)
			appointments.POST("", controllers.BookAppointment)
		}

		operations := v1.Group("/operations")
		{
			operations.GET("", controllers.ListOperations)
			operations.POST("", controllers.CreateOperation)
			operations.GET("/:id", controllers.GetOperation)
			operations.POST("/:id/status", controllers.AdvanceOperation)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("/types", controllers.ListDocumentTypes)
			documents.GET("", controllers.ListDocuments)
			documents.POST("", controllers.UploadDocument)
		}

		archives := v1.Group("/archives")
		{
			archives.GET("", controllers.ListArchives)
			archives.GET("/run", controllers.RunArchiver)
			archives.POST("/run", controllers.RunArchiver)
		}

		v1.GET("/reports/time", controllers.GetTimeReport)
		v1.POST("/contact", controllers.SubmitContactRequest)
		v1.GET("/realtime", controllers.StreamChanges)
	}
}
