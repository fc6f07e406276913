package ads

import (
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// CallbackAdapter translates vendor callback names into canonical events.
// Each vendor event maps to an ordered list of canonical events.
type CallbackAdapter struct {
	Vendor string
	Map    map[string][]Event
}

// NewCallbackAdapter creates an adapter for vendor
func NewCallbackAdapter(vendor string, m map[string][]Event) *CallbackAdapter {
	return &CallbackAdapter{Vendor: vendor, Map: m}
}

// Translate returns the canonical events for a vendor event
func (a *CallbackAdapter) Translate(vendorEvent string) ([]Event, bool) {
	events, ok := a.Map[vendorEvent]
	return events, ok
}

// Handle fires the canonical events mapped to vendorEvent on req. It returns
// false for vendor events with no mapping.
func (a *CallbackAdapter) Handle(req *AdRequest, vendorEvent string) bool {
	events, ok := a.Translate(vendorEvent)
	log := logger.Platform(a.Vendor)
	if !ok {
		log.Debug().
			Str("vendor_event", vendorEvent).
			Str("ad_request_id", req.ID).
			Msg("Unmapped vendor ad event")
		return false
	}

	log.Debug().
		Str("vendor_event", vendorEvent).
		Str("ad_request_id", req.ID).
		Msg(vendorEvent)
	for _, ev := range events {
		req.Fire(ev)
	}
	return true
}

// Callback returns a func that handles vendorEvent on req, for vendor SDKs
// that take one callback per event
func (a *CallbackAdapter) Callback(req *AdRequest, vendorEvent string) func() {
	return func() { a.Handle(req, vendorEvent) }
}
