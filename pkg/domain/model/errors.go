package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Error classes. Every error leaving a use case carries at most one of
// these; untagged errors are internal.
var (
	ErrTagValidation     = goerr.NewTag("validation")
	ErrTagForbidden      = goerr.NewTag("forbidden")
	ErrTagNotFound       = goerr.NewTag("not_found")
	ErrTagAuthentication = goerr.NewTag("authentication")
)

// ErrorLabel is the machine readable "error" field of a failed response
type ErrorLabel string

const (
	LabelMissingToken        ErrorLabel = "missing_bot_token"
	LabelMissingGuild        ErrorLabel = "missing_guild_id"
	LabelMissingRole         ErrorLabel = "missing_role_id"
	LabelInvalidBody         ErrorLabel = "invalid_body"
	LabelInvalidRequest      ErrorLabel = "invalid_request"
	LabelGuildNotFound       ErrorLabel = "guild_not_found"
	LabelRoleNotFound        ErrorLabel = "role_not_found"
	LabelMissingPermission   ErrorLabel = "insufficient_permission"
	LabelPrecedenceViolation ErrorLabel = "role_precedence_violation"
	LabelAuthentication      ErrorLabel = "authentication_failed"
	LabelInternal            ErrorLabel = "internal_error"
)

// labelKey is the goerr value key holding an ErrorLabel
const labelKey = "error_label"

// WithLabel attaches a response label to an error
func WithLabel(label ErrorLabel) goerr.Option {
	return goerr.V(labelKey, label)
}

// Sentinel errors for platform lookups
var (
	ErrGuildNotFound = goerr.New("guild not found", goerr.T(ErrTagNotFound), WithLabel(LabelGuildNotFound))
	ErrRoleNotFound  = goerr.New("role not found", goerr.T(ErrTagNotFound), WithLabel(LabelRoleNotFound))
)

// IsValidation reports whether err is a request validation failure
func IsValidation(err error) bool {
	return inChain(err, func(e error) bool { return goerr.HasTag(e, ErrTagValidation) })
}

// IsForbidden reports whether err is a permission or precedence failure
func IsForbidden(err error) bool {
	return inChain(err, func(e error) bool { return goerr.HasTag(e, ErrTagForbidden) })
}

// IsNotFound reports whether err is a missing guild or role
func IsNotFound(err error) bool {
	return inChain(err, func(e error) bool { return goerr.HasTag(e, ErrTagNotFound) })
}

// IsAuthentication reports whether the platform rejected the credential
func IsAuthentication(err error) bool {
	return inChain(err, func(e error) bool { return goerr.HasTag(e, ErrTagAuthentication) })
}

// LabelOf returns the outermost label attached to err, or fallback
func LabelOf(err error, fallback ErrorLabel) ErrorLabel {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if label, ok := goerr.Values(e)[labelKey].(ErrorLabel); ok {
			return label
		}
	}
	return fallback
}

// RootCause returns the innermost error of the chain
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

func inChain(err error, match func(error) bool) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if match(e) {
			return true
		}
	}
	return false
}
