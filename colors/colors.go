package colors

import (
	"net/http"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
)

// HTTPStatus colors 4xx/5xx codes red and everything else green
func HTTPStatus(code int) string {
	if code >= http.StatusBadRequest {
		return Red(code)
	}
	return Green(code)
}

// AlertStatus colors an alert status for terminal output
func AlertStatus(status string) string {
	switch status {
	case "active":
		return Red(status)
	case "cancelled":
		return Yellow(status)
	default:
		return status
	}
}
