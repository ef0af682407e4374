// Package problemdetails renders API errors as RFC 7807 problem documents.
package problemdetails

import "fmt"

const (
	TypeValidationError  = "validation-error"
	TypeNotFound         = "not-found"
	TypeSlugTaken        = "slug-taken"
	TypeNotOwner         = "not-owner"
	TypeStoreUnavailable = "store-unavailable"
	TypeInternalError    = "internal-error"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ProblemDetail struct {
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://api.example.com/problems/%s", problemType),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

func NewValidation(errors []FieldError) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://api.example.com/problems/%s", TypeValidationError),
		Title:  "Validation Failed",
		Status: 400,
		Detail: "Request validation failed",
		Errors: errors,
	}
}
