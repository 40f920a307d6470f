package utils

import "strings"

// NormalizeLicensePlate trims and uppercases a free-text plate
func NormalizeLicensePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
