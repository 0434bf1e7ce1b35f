package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
	"github.com/wipefix/wipefix/backend/go-services/pkg/metrics"
)

// Failure reasons, as logged and counted.
const (
	ReasonNotConfigured = "not_configured"
	ReasonMissing       = "missing"
	ReasonMalformed     = "malformed"
	ReasonMismatch      = "mismatch"
)

const bearerPrefix = "Bearer "

// AdminAuthorizer checks the shared admin token that guards mutating operations.
type AdminAuthorizer struct {
	token string
}

func NewAdminAuthorizer(token string) *AdminAuthorizer {
	return &AdminAuthorizer{token: token}
}

// Configured reports whether an admin token is set server-side.
func (a *AdminAuthorizer) Configured() bool { return a != nil && a.token != "" }

// Authorize validates an Authorization header value ("Bearer <token>").
// An unset server token is a configuration failure, distinct from a bad credential.
func (a *AdminAuthorizer) Authorize(header string) error {
	if !a.Configured() {
		reject(ReasonNotConfigured)
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("admin token not configured")
	}
	if header == "" {
		return unauthorized(ReasonMissing)
	}
	token, ok := ParseBearer(header)
	if !ok {
		return unauthorized(ReasonMalformed)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return unauthorized(ReasonMismatch)
	}
	return nil
}

// ParseBearer extracts the token from "Bearer <token>". Everything after the
// first space is the token.
func ParseBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// IsUnauthorized reports a caller-correctable credential failure.
func IsUnauthorized(err error) bool {
	return err != nil && errbuilder.CodeOf(err) == errbuilder.CodePermissionDenied
}

// IsNotConfigured reports the operator-correctable missing-token failure.
func IsNotConfigured(err error) bool {
	return err != nil && errbuilder.CodeOf(err) == errbuilder.CodeFailedPrecondition
}

func unauthorized(reason string) error {
	reject(reason)
	return errbuilder.New().
		WithCode(errbuilder.CodePermissionDenied).
		WithMsg("unauthorized")
}

func reject(reason string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	if reason == ReasonNotConfigured {
		logger.Errorw("admin token not configured; rejecting mutating request", map[string]interface{}{"reason": reason})
		return
	}
	logger.Warnw("admin credential rejected", map[string]interface{}{"reason": reason})
}
