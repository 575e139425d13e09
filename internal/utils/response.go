package utils

import "time"

// APIResponse is the envelope every endpoint returns, success or failure.
// Error carries the public reason; Data is omitted when there is nothing
// to return.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, reason string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     reason,
		Timestamp: time.Now(),
	}
}
