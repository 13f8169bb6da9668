package domain

import "time"

// HighlightStyle selects how the active sentence is rendered.
type HighlightStyle string

// Highlight style values.
const (
	StyleBackground HighlightStyle = "background"
	StyleUnderline  HighlightStyle = "underline"
	StyleBold       HighlightStyle = "bold"
)

// PlaybackSpeeds is the enumerated set of allowed speed multipliers.
var PlaybackSpeeds = []float64{0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// ValidSpeed reports whether speed is one of PlaybackSpeeds.
func ValidSpeed(speed float64) bool {
	for _, s := range PlaybackSpeeds {
		if s == speed {
			return true
		}
	}
	return false
}

// ReaderSettings is the persisted settings document for the reader.
// The original stores a single profile; there is no per-user dimension.
type ReaderSettings struct {
	FontSize       int            `json:"font_size"`
	Theme          string         `json:"theme"` // "light", "sepia", "dark"
	PlaybackSpeed  float64        `json:"playback_speed"`
	AutoScroll     bool           `json:"auto_scroll"`
	HighlightStyle HighlightStyle `json:"highlight_style"`
	LineSpacing    float64        `json:"line_spacing"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewReaderSettings creates settings with the reader defaults.
func NewReaderSettings() *ReaderSettings {
	return &ReaderSettings{
		FontSize:       18,
		Theme:          "light",
		PlaybackSpeed:  1.0,
		AutoScroll:     true,
		HighlightStyle: StyleBackground,
		LineSpacing:    1.6,
		UpdatedAt:      time.Now(),
	}
}
