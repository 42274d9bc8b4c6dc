package errors

import (
	"net/http"
)

func ToHTTPStatus(err *AppError) int {
	if err == nil {
		return http.StatusOK
	}
	return mapErrorCodeToHTTP(err.Code)
}

func mapErrorCodeToHTTP(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeAlreadyActive:
		return http.StatusConflict
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeSelfBooking, CodeNotOwner, CodeNotParticipant:
		return http.StatusForbidden
	case CodeAlreadyConfirmed:
		return http.StatusOK
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
