package brokerpack

import (
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Domain failures carry an errbuilder code; storage failures stay plain wrapped errors
// tagged with ErrStorageUnavailable.

// ErrStorageUnavailable marks failures of the pack store or its connection.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageFailure tags err as a storage failure without hiding it.
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

func IsStorageFailure(err error) bool { return errors.Is(err, ErrStorageUnavailable) }

func DuplicateVersion(version string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(fmt.Sprintf("broker pack version %q already exists", version))
}

func NotFound(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(msg)
}

func Invalid(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}

func IsNotFound(err error) bool         { return hasCode(err, errbuilder.CodeNotFound) }
func IsDuplicateVersion(err error) bool { return hasCode(err, errbuilder.CodeAlreadyExists) }
func IsInvalid(err error) bool          { return hasCode(err, errbuilder.CodeInvalidArgument) }

// IsDomainError reports whether err was classified by this service rather than a collaborator.
func IsDomainError(err error) bool {
	var b *errbuilder.ErrBuilder
	return errors.As(err, &b)
}

// Message returns the caller-facing message of a domain error.
func Message(err error) string {
	var b *errbuilder.ErrBuilder
	if errors.As(err, &b) && b.Msg != "" {
		return b.Msg
	}
	return err.Error()
}

func hasCode(err error, code errbuilder.ErrCode) bool {
	if err == nil || !IsDomainError(err) {
		return false
	}
	return errbuilder.CodeOf(err) == code
}
