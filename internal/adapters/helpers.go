package adapters

import (
	"fmt"

	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// VendorErrorCode classifies failures reported by a vendor SDK
type VendorErrorCode string

const (
	ErrorCodeMissingGlobal VendorErrorCode = "MISSING_GLOBAL"
	ErrorCodeSDK           VendorErrorCode = "SDK_ERROR"
	ErrorCodeNoInventory   VendorErrorCode = "NO_INVENTORY"
	ErrorCodeOffline       VendorErrorCode = "OFFLINE"
)

// VendorError is a failure reported by, or while binding to, a vendor SDK
type VendorError struct {
	Platform ads.Platform
	Code     VendorErrorCode
	Message  string
	Cause    error
}

func (e *VendorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Platform, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Platform, e.Message)
}

func (e *VendorError) Unwrap() error {
	return e.Cause
}

// NewMissingGlobalError reports a vendor SDK object absent from the environment
func NewMissingGlobalError(platform ads.Platform, cause error) *VendorError {
	return &VendorError{
		Platform: platform,
		Code:     ErrorCodeMissingGlobal,
		Message:  "vendor SDK not available",
		Cause:    cause,
	}
}

// NewSDKError wraps an error returned by a vendor SDK call
func NewSDKError(platform ads.Platform, cause error) *VendorError {
	return &VendorError{
		Platform: platform,
		Code:     ErrorCodeSDK,
		Message:  "vendor SDK call failed",
		Cause:    cause,
	}
}

// NewNoInventoryError reports that the vendor had no ad to serve
func NewNoInventoryError(platform ads.Platform) *VendorError {
	return &VendorError{
		Platform: platform,
		Code:     ErrorCodeNoInventory,
		Message:  "no ad inventory",
	}
}

// NewOfflineError reports that the ad could not load due to a network error
func NewOfflineError(platform ads.Platform) *VendorError {
	return &VendorError{
		Platform: platform,
		Code:     ErrorCodeOffline,
		Message:  "ad not shown due to network error",
	}
}
