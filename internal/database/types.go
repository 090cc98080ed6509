package database

import (
	"encoding/json"
	"time"

	"pdfshrink/internal/shrink"
)

// UserPreferences database model
type UserPreferences struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PreferencesJSON string    `gorm:"type:text" json:"preferences_json"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserPreferencesData represents user preferences data
type UserPreferencesData struct {
	DefaultQualityPreset       string  `json:"default_quality_preset"`
	DefaultResolutionDPI       float64 `json:"default_resolution_dpi"`
	DefaultDownsampleThreshold float64 `json:"default_downsample_threshold"`
	DefaultGrayscale           bool    `json:"default_grayscale"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() UserPreferencesData {
	options := shrink.DefaultShrinkOptions()
	return UserPreferencesData{
		DefaultQualityPreset:       options.QualityPreset,
		DefaultResolutionDPI:       options.ResolutionDPI,
		DefaultDownsampleThreshold: options.DownsampleThreshold,
		DefaultGrayscale:           options.Grayscale,
	}
}

// ShrinkOptions converts stored preferences into job options
func (p UserPreferencesData) ShrinkOptions() shrink.ShrinkOptions {
	return shrink.ShrinkOptions{
		Grayscale:           p.DefaultGrayscale,
		ResolutionDPI:       p.DefaultResolutionDPI,
		DownsampleThreshold: p.DefaultDownsampleThreshold,
		QualityPreset:       p.DefaultQualityPreset,
	}.Normalize()
}

// GetPreferences returns the user preferences data
func (up *UserPreferences) GetPreferences() UserPreferencesData {
	if up.PreferencesJSON == "" {
		return DefaultPreferences()
	}

	var prefs UserPreferencesData
	if err := json.Unmarshal([]byte(up.PreferencesJSON), &prefs); err != nil {
		return DefaultPreferences()
	}

	return prefs
}

// SetPreferences sets the user preferences data
func (up *UserPreferences) SetPreferences(prefs UserPreferencesData) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	up.PreferencesJSON = string(data)
	return nil
}

// JobRecord captures the terminal outcome of one compression job
type JobRecord struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	Status         string    `json:"status"` // "completed" or "failed"
	QualityPreset  string    `json:"quality_preset"`
	PDFVersion     string    `json:"pdf_version"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	UsedOriginal   bool      `json:"used_original"`
	DurationMs     int64     `json:"duration_ms"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CompressionRatio reports the percentage of data saved
func (r *JobRecord) CompressionRatio() float64 {
	if r.OriginalSize <= 0 {
		return 0
	}
	return float64(r.OriginalSize-r.CompressedSize) / float64(r.OriginalSize) * 100
}

// Stats aggregates job history, mirroring session statistics
type Stats struct {
	TotalJobs          int64 `json:"total_jobs"`
	CompletedJobs      int64 `json:"completed_jobs"`
	FailedJobs         int64 `json:"failed_jobs"`
	FallbackJobs       int64 `json:"fallback_jobs"`
	TotalOriginalBytes int64 `json:"total_original_bytes"`
	TotalOutputBytes   int64 `json:"total_output_bytes"`
	TotalDataSaved     int64 `json:"total_data_saved"`
}
