package core

import "github.com/rs/zerolog"

const (
	// DefaultLimit is the result count used when callers do not care.
	DefaultLimit = 20

	// MaxLimit caps the result count of any single query.
	MaxLimit = 200

	// DefaultThreshold is the minimum similarity score a candidate must reach
	// to appear in results.
	DefaultThreshold = 70

	// prefilterCap bounds how many candidates the structural pre-filter hands
	// to similarity scoring. It must exceed MaxLimit's practical use so the
	// re-rank step has room to discard weak matches.
	prefilterCap = 200
)

// Config represents configuration options for the message store
type Config struct {
	Path      string         // Database file path, supplied by the hosting environment
	Threshold int            // Similarity threshold used when a query leaves it unset (default: DefaultThreshold)
	ScoreFn   ScoreFunc      // Similarity strategy (default: PartialRatio)
	Logger    zerolog.Logger // Structured logger (default: disabled)
}

// DefaultConfig returns a default configuration for the given database path
func DefaultConfig(path string) Config {
	return Config{
		Path:      path,
		Threshold: DefaultThreshold,
		ScoreFn:   PartialRatio,
		Logger:    zerolog.Nop(),
	}
}

// SearchOptions defines the scope and ranking parameters of a query. Empty
// scope slices mean "no constraint on that dimension"; a non-empty slice is a
// membership test ("any of these values").
type SearchOptions struct {
	Sessions  []string `json:"sessions,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	Senders   []string `json:"senders,omitempty"`

	// Limit is clamped into [1, MaxLimit].
	Limit int `json:"limit"`

	// Threshold is the minimum similarity score in [0, 100]; values <= 0
	// select DefaultThreshold.
	Threshold int `json:"threshold"`

	// TextOnly excludes the outline field from matching.
	TextOnly bool `json:"textOnly,omitempty"`
}

// DefaultSearchOptions returns unscoped options with the default limit and
// threshold.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:     DefaultLimit,
		Threshold: DefaultThreshold,
	}
}

// normalized clamps out-of-range parameters instead of rejecting them and
// drops empty scope values.
func (o SearchOptions) normalized() SearchOptions {
	if o.Limit < 1 {
		o.Limit = 1
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Threshold > 100 {
		o.Threshold = 100
	}
	o.Sessions = pruneEmpty(o.Sessions)
	o.Platforms = pruneEmpty(o.Platforms)
	o.Senders = pruneEmpty(o.Senders)
	return o
}

func pruneEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
