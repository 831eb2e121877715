package dto

// Response is the canonical success envelope: {success, data, message}.
// Error responses use apierror.APIError, which mirrors the same shape with
// success=false.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// OKMsg wraps data plus a human-readable message.
func OKMsg(data interface{}, msg string) Response {
	return Response{Success: true, Data: data, Message: msg}
}
