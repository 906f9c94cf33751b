package utils

// APIResponse is the envelope for the checkout endpoints. The purchase flow
// may cross a payment redirect, so the browser client branches on Success
// and shows Message as-is; Detail carries the cause for logs and support,
// never for display.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message, detail string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Detail:  detail,
	}
}
