// Package catalog provides the ad unit catalog wire format and an HTTP client
// for the catalog endpoint (GET <ads-endpoint>/<gameID>).
package catalog

// Display formats reported by the catalog endpoint
const (
	FormatInterstitial  = "interstitial"
	FormatRewardedVideo = "rewarded_video"
	FormatBanner        = "banner"
)

// Response is the catalog returned for a game
//
//	{
//	  "gameID": 68,
//	  "ads": [
//	    {"display_format": "interstitial", "placement_id": "1284783688986969_1317853085680029"}
//	  ]
//	}
type Response struct {
	GameID int      `json:"gameID"`
	Ads    []AdUnit `json:"ads"`
}

// AdUnit is a single platform ad unit
type AdUnit struct {
	DisplayFormat string `json:"display_format"`
	PlacementID   string `json:"placement_id"`
}
