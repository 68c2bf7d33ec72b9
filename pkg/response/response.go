// Package response defines the JSON envelope written by the HTTP handlers.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	EmptyRequestBodyResponse = ErrorResponse("Request body is empty. Please provide necessary data.")
	BadRequestResponse       = ErrorResponse("Invalid request body. Please check your input.")
	UnauthorizedResponse     = ErrorResponse("Authentication is required to access this resource.")
	ResourceNotFoundResponse = ErrorResponse("The requested resource was not found.")
	ServerErrorResponse      = ErrorResponse("An internal server error occurred. Please try again later.")
)

type Response struct {
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Details    []validationError `json:"details,omitempty"`
	Data       any               `json:"data,omitempty"`
	Pagination any               `json:"pagination,omitempty"`
	Extra      any               `json:"extra,omitempty"`
}

func ErrorResponse(msg string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
	}
}

// SuccessResponse wraps the first element of data, if any.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// PageResponse wraps one page of a listing.
func PageResponse(data, pagination, extra any) Response {
	return Response{
		Status:     StatusSuccess,
		Data:       data,
		Pagination: pagination,
		Extra:      extra,
	}
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Message: "Validation failed. Please check your input.",
		Details: getValidationErrors(err),
	}
}

func getValidationErrors(err error) []validationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make([]validationError, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, validationError{
			Field: e.Field(),
			Value: e.Value(),
			Issue: issue(e),
		})
	}

	return details
}

func issue(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", e.Param())
	case "alphanum":
		return "Must contain only letters and digits."
	default:
		return http.StatusText(http.StatusBadRequest) + "."
	}
}
