// Package adapters provides the platform strategy framework shared by the
// vendor packages under internal/adapters
package adapters

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/ads"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// MustRegister adds factory to ads.DefaultRegistry and panics on conflict.
// Vendor packages call it from init.
func MustRegister(platform ads.Platform, factory ads.StrategyFactory) {
	if err := ads.RegisterStrategy(platform, factory); err != nil {
		panic(fmt.Sprintf("failed to register %s strategy: %v", platform, err))
	}
}

// Async runs a blocking vendor call on its own goroutine. A returned error or
// a panic resolves req through the noFill path.
func Async(log *zerolog.Logger, platform ads.Platform, req *ads.AdRequest, call func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("ad_request_id", req.ID).
					Interface("panic", r).
					Msg("Vendor ad call panicked")
				req.Fail()
			}
		}()

		if err := call(); err != nil {
			log.Error().
				Err(NewSDKError(platform, err)).
				Str("ad_request_id", req.ID).
				Msg("Ad instance encountered an error or was not filled.")
			req.Fail()
		}
	}()
}

// Logger returns the component logger for platform
func Logger(platform ads.Platform) *zerolog.Logger {
	return logger.Platform(string(platform))
}
