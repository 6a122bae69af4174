package transport

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the health check body.
type StatusResponse struct {
	Status string `json:"status"`
}

// Empty is returned when a delete finds nothing to remove.
type Empty struct{}
