package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ErrCode returns the EngineError code carried by err, or 0 if err is not
// an EngineError. Errors built with NewEngineError share the code of their
// sentinel, so callers classify by code rather than by identity.
func ErrCode(err error) int {
	if engErr, ok := err.(*EngineError); ok {
		return engErr.Code
	}
	return 0
}

// ---- Ledger / task errors (-32010 to -32039) ----

var (
	ErrInsufficientFunds   = &EngineError{Code: -32010, Message: "insufficient points balance"}
	ErrOnCooldown          = &EngineError{Code: -32011, Message: "task is on cooldown"}
	ErrAlreadyClaimedToday = &EngineError{Code: -32012, Message: "daily bonus already claimed today"}
	ErrUnknownTask         = &EngineError{Code: -32013, Message: "unknown task type"}
)

// ---- Lease errors (-32040 to -32069) ----

var (
	ErrAlreadyActive     = &EngineError{Code: -32040, Message: "a server is already active"}
	ErrNotRunning        = &EngineError{Code: -32041, Message: "server is not running"}
	ErrNothingToExtend   = &EngineError{Code: -32042, Message: "no remaining server time to extend"}
	ErrInvalidTransition = &EngineError{Code: -32043, Message: "invalid lease status transition"}
)

// ---- Guard errors (-32100 to -32129) ----

var (
	ErrThrottled = &EngineError{Code: -32100, Message: "too many requests"}
)

// ---- Store / Config errors (-32130 to -32159) ----

var (
	ErrStoreInit     = &EngineError{Code: -32130, Message: "failed to initialize store"}
	ErrStateConflict = &EngineError{Code: -32131, Message: "state was modified concurrently"}
	ErrConfigInvalid = &EngineError{Code: -32136, Message: "invalid configuration"}
)
