package utils

import (
	"log"
	"strings"
)

// LogEvent prints standardized log line with module/action/request_id.
// Never pass card data or client secrets; summarize the payload instead.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	if req == "" {
		req = "-"
	}
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, message)
}

// LogError is LogEvent for failures that did not abort the request.
func LogError(requestID, module, action string, err error) {
	if err == nil {
		return
	}
	LogEvent(requestID, module, action, "error: "+err.Error())
}
