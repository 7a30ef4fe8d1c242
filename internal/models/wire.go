package models

// VisitRequest is the PATCH /subjects/{id} body. An empty LastVerifiedDate
// asks the service to use its own clock.
type VisitRequest struct {
	LastVerifiedDate string `json:"last_verified_date,omitempty"`
}

// ErrorResponse is the JSON error body of the subject service.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
