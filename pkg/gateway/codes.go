package gateway

import (
	"fmt"
	"net/http"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

// Error codes written into the response envelope
const (
	CodeDBAlreadyExists         = "DB_ALREADY_EXISTS"
	CodeDBNotFound              = "DB_NOT_FOUND"
	CodeCollectionAlreadyExists = "COLLECTION_ALREADY_EXISTS"
	CodeCollectionNotFound      = "COLLECTION_NOT_FOUND"
	CodeBucketAlreadyExists     = "BUCKET_ALREADY_EXISTS"
	CodeBucketNotFound          = "BUCKET_NOT_FOUND"
	CodeInvalidConnection       = "INVALID_CONNECTION"
	CodeNeedAuthorisation       = "NEED_AUTHORISATION"
	CodeInvalidUsername         = "INVALID_USERNAME"
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeReadOnly                = "READ_ONLY"
	CodeHostUnreachable         = "HOST_UNREACHABLE"
	CodeServerError             = "SERVER_ERROR"
	CodeGatewayToken            = "GATEWAY_TOKEN_INVALID"
	CodeMongoTimeout            = "MONGO_TIMEOUT"
)

func invalidConnection() *apperrors.AppError {
	return apperrors.New(apperrors.ErrorAuth, CodeInvalidConnection, "Invalid Connection")
}

func alreadyExists(code, what, name string) *apperrors.AppError {
	return apperrors.ConflictError(code, fmt.Sprintf("%s %s already exists", what, name))
}

func notFound(code, what, name string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrorValidation, code, fmt.Sprintf("%s %s does not exist", what, name))
}

func invalidRequest(message string) *apperrors.AppError {
	return apperrors.ValidationError(CodeInvalidRequest, message)
}

// statusFor picks the HTTP status that accompanies an error envelope. The
// envelope is authoritative; the status only helps generic HTTP tooling.
func statusFor(err *apperrors.AppError) int {
	switch err.Category {
	case apperrors.ErrorValidation:
		if err.Code == CodeDBNotFound || err.Code == CodeCollectionNotFound || err.Code == CodeBucketNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case apperrors.ErrorConflict:
		return http.StatusConflict
	case apperrors.ErrorAuth:
		return http.StatusUnauthorized
	case apperrors.ErrorUnavailable, apperrors.ErrorNetwork, apperrors.ErrorTimeout:
		return http.StatusServiceUnavailable
	}
	if err.Code == CodeReadOnly {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
