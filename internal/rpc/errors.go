package rpc

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/seams-estates/seams/internal/service"
)

// toConnectError maps service errors onto Connect codes.
// Unexpected errors are hidden behind a generic message.
func toConnectError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, service.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrAlreadyVerified):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, service.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, service.ErrPermissionDenied):
		return connect.NewError(connect.CodePermissionDenied, err)
	default:
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
