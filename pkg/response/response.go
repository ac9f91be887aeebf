// Package response defines the JSON envelope returned by every API handler.
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

type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
	Details    []any  `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Empty Request Body",
	Message:    "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Bad Request",
	Message:    "The request could not be understood. Please check the data you provided.",
}

var ResourceNotFoundResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusNotFound,
	Error:      "Resource Not Found",
	Message:    "The requested resource was not found.",
}

var ConflictResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusConflict,
	Error:      "Conflict",
	Message:    "The short code is already taken. Please choose another alias.",
}

var ServerErrorResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusInternalServerError,
	Error:      "Server Error",
	Message:    "An internal server error occurred. Please try again later.",
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:     StatusSuccess,
		StatusCode: http.StatusOK,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse builds a 400 response listing every failed field
// rule, or the plain message when err is not a validator error.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:     StatusError,
		StatusCode: http.StatusBadRequest,
		Error:      "Validation Error",
		Message:    "The provided data is invalid. Please correct the listed fields.",
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			resp.Details = append(resp.Details, map[string]string{
				"field": vErr.Field(),
				"issue": fmt.Sprintf("failed on the %q rule", vErr.Tag()),
			})
		}
	} else if err != nil {
		resp.Details = append(resp.Details, err.Error())
	}

	return resp
}
