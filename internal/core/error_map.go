package core

import (
	"errors"
	"strings"
)

// CodedError is implemented by domain errors that carry a machine-readable code.
type CodedError interface {
	error
	ErrorCode() string
}

type ErrorInfo struct {
	Code       string
	Message    string
	HTTPStatus int
}

// MapError classifies a failure into a stable code. Jira failures are
// recognized by the HTTP status embedded in APIError messages.
func MapError(err error, fallbackStatus int) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: "internal_error", Message: "internal server error", HTTPStatus: fallbackStatus}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	var coded CodedError
	if errors.As(err, &coded) {
		switch code := coded.ErrorCode(); code {
		case "invalid_parameters", "unknown_tool":
			return ErrorInfo{Code: code, Message: msg, HTTPStatus: 400}
		}
	}

	switch {
	case strings.Contains(lower, "http 401"):
		return ErrorInfo{Code: "jira_auth_failed", Message: msg, HTTPStatus: 502}
	case strings.Contains(lower, "http 403"):
		return ErrorInfo{Code: "jira_permission_denied", Message: msg, HTTPStatus: 502}
	case strings.Contains(lower, "http 404"):
		return ErrorInfo{Code: "jira_not_found", Message: msg, HTTPStatus: 502}
	case strings.Contains(lower, "http 400"), strings.Contains(lower, "http 422"):
		return ErrorInfo{Code: "jira_validation_failed", Message: msg, HTTPStatus: 400}
	default:
		code := "internal_error"
		if fallbackStatus >= 400 && fallbackStatus < 500 {
			code = "bad_request"
		}
		return ErrorInfo{Code: code, Message: msg, HTTPStatus: fallbackStatus}
	}
}
