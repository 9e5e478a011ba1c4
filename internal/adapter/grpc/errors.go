package grpc

import (
	"context"
	"errors"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps domain errors onto gRPC codes. Errors that already carry a status pass through.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// fromStatus maps a gRPC status back to the matching domain sentinel so callers
// on the client side can keep using errors.Is.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = domain.ErrNotFound
	case codes.InvalidArgument:
		sentinel = domain.ErrInvalidInput
	case codes.PermissionDenied:
		sentinel = domain.ErrForbidden
	case codes.AlreadyExists:
		sentinel = domain.ErrAlreadyExists
	default:
		return err
	}
	return &statusError{sentinel: sentinel, err: err}
}

type statusError struct {
	sentinel error
	err      error
}

func (e *statusError) Error() string { return e.err.Error() }

func (e *statusError) Unwrap() []error { return []error{e.sentinel, e.err} }

// GRPCStatus keeps status.Code working on wrapped client errors.
func (e *statusError) GRPCStatus() *status.Status {
	st, _ := status.FromError(e.err)
	return st
}
