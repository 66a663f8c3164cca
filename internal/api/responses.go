package api

// ErrorResponse is the uniform error body returned by REST handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a write that has no payload to return.
type OKResponse struct {
	OK bool `json:"ok"`
}
