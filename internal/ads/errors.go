package ads

import (
	"errors"
	"fmt"
)

// ErrorCode classifies errors returned to game code
type ErrorCode string

const (
	ErrorCodeInvalidParam     ErrorCode = "INVALID_PARAM"
	ErrorCodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	ErrorCodeNotSupported     ErrorCode = "NOT_SUPPORTED"
	ErrorCodeOperationFailed  ErrorCode = "OPERATION_FAILED"
	ErrorCodeNotInitialized   ErrorCode = "NOT_INITIALIZED"
)

// API names used as error context
const (
	APIShowBanner       = "ads.showBanner"
	APIShowInterstitial = "ads.showInterstitial"
	APIShowRewarded     = "ads.showRewarded"
	APIInitialize       = "ads.initialize"
)

var defaultMessages = map[ErrorCode]string{
	ErrorCodeInvalidParam:     "Invalid parameter.",
	ErrorCodeInvalidOperation: "Operation is not permitted in the current state.",
	ErrorCodeNotSupported:     "This API is not supported on the current platform.",
	ErrorCodeOperationFailed:  "The operation failed.",
	ErrorCodeNotInitialized:   "SDK has not been initialized.",
}

// Error is the error type returned by the ads API
type Error struct {
	Code    ErrorCode
	Message string
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Context, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Context, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message, context string, cause error) *Error {
	if message == "" {
		message = defaultMessages[code]
	}
	return &Error{Code: code, Message: message, Context: context, Cause: cause}
}

// InvalidParams reports a malformed argument
func InvalidParams(message, context string) *Error {
	return newError(ErrorCodeInvalidParam, message, context, nil)
}

// InvalidOperation reports a call the current state does not permit
func InvalidOperation(message, context string) *Error {
	return newError(ErrorCodeInvalidOperation, message, context, nil)
}

// NotSupported reports an API the platform cannot serve
func NotSupported(message, context string) *Error {
	return newError(ErrorCodeNotSupported, message, context, nil)
}

// OperationFailed wraps a vendor or infrastructure failure
func OperationFailed(cause error, context string) *Error {
	return newError(ErrorCodeOperationFailed, "", context, cause)
}

// NotInitialized reports a call made before the SDK finished booting
func NotInitialized(message, context string) *Error {
	return newError(ErrorCodeNotInitialized, message, context, nil)
}

// ErrorCodeOf returns the code of an *Error anywhere in err's chain, or "" if none
func ErrorCodeOf(err error) ErrorCode {
	var adErr *Error
	if errors.As(err, &adErr) {
		return adErr.Code
	}
	return ""
}
