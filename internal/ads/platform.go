package ads

import "sort"

// Platform identifies the host platform a game is running on
type Platform string

const (
	PlatformNull       Platform = "null"
	PlatformDebug      Platform = "debug"
	PlatformWortal     Platform = "wortal"
	PlatformLink       Platform = "link"
	PlatformViber      Platform = "viber"
	PlatformFacebook   Platform = "facebook"
	PlatformPoki       Platform = "poki"
	PlatformYandex     Platform = "yandex"
	PlatformCrazyGames Platform = "crazygames"
)

// PlatformInfo is the ad support matrix for a platform
type PlatformInfo struct {
	SupportsPreroll   bool
	RequiresAdUnitIDs bool
	SupportsBanner    bool
}

// Platforms lists the capability matrix for every known platform
var Platforms = map[Platform]PlatformInfo{
	PlatformNull:       {},
	PlatformDebug:      {SupportsPreroll: true, SupportsBanner: true},
	PlatformWortal:     {SupportsPreroll: true},
	PlatformLink:       {RequiresAdUnitIDs: true},
	PlatformViber:      {RequiresAdUnitIDs: true},
	PlatformFacebook:   {RequiresAdUnitIDs: true, SupportsBanner: true},
	PlatformPoki:       {SupportsPreroll: true},
	PlatformYandex:     {SupportsPreroll: true, SupportsBanner: true},
	PlatformCrazyGames: {SupportsPreroll: true},
}

// Info returns the support matrix for p. Unknown platforms support nothing.
func (p Platform) Info() PlatformInfo {
	return Platforms[p]
}

// IsKnown reports whether p is in the capability matrix
func (p Platform) IsKnown() bool {
	_, ok := Platforms[p]
	return ok
}

// KnownPlatforms returns all platform codes, sorted
func KnownPlatforms() []string {
	out := make([]string, 0, len(Platforms))
	for p := range Platforms {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
