package domain

// Failure is the stable, caller-facing name of an operation outcome other than success.
type Failure string

const (
	FailureNone                Failure = ""
	FailureRedemptionDisabled  Failure = "redemption_disabled"
	FailureAccountInvalid      Failure = "account_invalid"
	FailureAccountBanned       Failure = "account_banned"
	FailureNotVerified         Failure = "not_verified"
	FailureDailyLimitExceeded  Failure = "daily_limit_exceeded"
	FailureInsufficientPoints  Failure = "insufficient_points"
	FailureStockExhausted      Failure = "stock_exhausted"
	FailureInvalidSignature    Failure = "invalid_signature"
	FailureDeviceAlreadyBound  Failure = "device_already_bound"
	FailureAccountAlreadyBound Failure = "account_already_bound"
	FailureInvalidRequest      Failure = "invalid_request"
	FailureTransient           Failure = "transient"
	FailureInternal            Failure = "internal"
)

// Retryable reports whether the caller may safely repeat the whole operation.
func (f Failure) Retryable() bool { return f == FailureTransient }
