package shrink

import "math"

// Quality presets understood by the pdfwrite device
const (
	PresetScreen   = "screen"
	PresetEbook    = "ebook"
	PresetPrinter  = "printer"
	PresetPrepress = "prepress"
)

// Normalization bounds and defaults
const (
	DefaultResolutionDPI       = 72.0
	DefaultDownsampleThreshold = 1.5
	MinResolutionDPI           = 1.0
	MinDownsampleThreshold     = 0.1
	DefaultPDFVersion          = "1.5"
)

// ShrinkOptions holds the user-facing knobs for one compression job
type ShrinkOptions struct {
	Grayscale           bool    `json:"grayscale"`
	ResolutionDPI       float64 `json:"resolution_dpi"`
	DownsampleThreshold float64 `json:"downsample_threshold"`
	QualityPreset       string  `json:"quality_preset"`
}

// DefaultShrinkOptions returns the options used when a caller supplies none
func DefaultShrinkOptions() ShrinkOptions {
	return ShrinkOptions{
		Grayscale:           false,
		ResolutionDPI:       DefaultResolutionDPI,
		DownsampleThreshold: DefaultDownsampleThreshold,
		QualityPreset:       PresetEbook,
	}
}

// Normalize returns a copy with out-of-range fields replaced rather than
// rejected. Absent or non-finite numbers take the defaults, values below
// the floors are clamped, and an unknown preset falls back to ebook.
func (o ShrinkOptions) Normalize() ShrinkOptions {
	normalized := o

	switch {
	case normalized.ResolutionDPI == 0,
		math.IsNaN(normalized.ResolutionDPI),
		math.IsInf(normalized.ResolutionDPI, 0):
		normalized.ResolutionDPI = DefaultResolutionDPI
	case normalized.ResolutionDPI < MinResolutionDPI:
		normalized.ResolutionDPI = MinResolutionDPI
	}

	switch {
	case normalized.DownsampleThreshold == 0,
		math.IsNaN(normalized.DownsampleThreshold),
		math.IsInf(normalized.DownsampleThreshold, 0):
		normalized.DownsampleThreshold = DefaultDownsampleThreshold
	case normalized.DownsampleThreshold < MinDownsampleThreshold:
		normalized.DownsampleThreshold = MinDownsampleThreshold
	}

	switch normalized.QualityPreset {
	case PresetScreen, PresetEbook, PresetPrinter, PresetPrepress:
	default:
		normalized.QualityPreset = PresetEbook
	}

	return normalized
}
