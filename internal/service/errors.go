package service

import (
	"errors"

	"pointshop/internal/database"
	"pointshop/internal/domain"
)

var (
	ErrRedemptionDisabled  = errors.New("redemption: disabled")
	ErrAccountInvalid      = errors.New("account: not found")
	ErrAccountBanned       = errors.New("account: banned")
	ErrNotVerified         = errors.New("account: not verified")
	ErrDailyLimitExceeded  = errors.New("redemption: daily limit exceeded")
	ErrInsufficientPoints  = errors.New("redemption: insufficient points")
	ErrStockExhausted      = errors.New("redemption: stock exhausted")
	ErrInvalidSignature    = errors.New("verify: invalid signature")
	ErrDeviceAlreadyBound  = errors.New("verify: device already bound to another account")
	ErrAccountAlreadyBound = errors.New("verify: account already bound to another device")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternal            = errors.New("internal error")
)

var failureKinds = []struct {
	err  error
	kind domain.Failure
}{
	{ErrRedemptionDisabled, domain.FailureRedemptionDisabled},
	{ErrAccountInvalid, domain.FailureAccountInvalid},
	{ErrAccountBanned, domain.FailureAccountBanned},
	{ErrNotVerified, domain.FailureNotVerified},
	{ErrDailyLimitExceeded, domain.FailureDailyLimitExceeded},
	{ErrInsufficientPoints, domain.FailureInsufficientPoints},
	{ErrStockExhausted, domain.FailureStockExhausted},
	{ErrInvalidSignature, domain.FailureInvalidSignature},
	{ErrDeviceAlreadyBound, domain.FailureDeviceAlreadyBound},
	{ErrAccountAlreadyBound, domain.FailureAccountAlreadyBound},
	{ErrInvalidRequest, domain.FailureInvalidRequest},
	{database.ErrTransient, domain.FailureTransient},
	{ErrInternal, domain.FailureInternal},
}

// Kind maps an error returned by this package to its caller-facing failure.
// Unrecognised errors are internal.
func Kind(err error) domain.Failure {
	if err == nil {
		return domain.FailureNone
	}
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	if database.IsTransient(err) {
		return domain.FailureTransient
	}
	return domain.FailureInternal
}

// Business reports whether err is an expected rule outcome rather than a fault.
func Business(err error) bool {
	switch Kind(err) {
	case domain.FailureNone, domain.FailureTransient, domain.FailureInternal, domain.FailureInvalidRequest:
		return false
	}
	return true
}
