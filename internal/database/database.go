package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database handles database operations
type Database struct {
	db *gorm.DB
}

// NewDatabase creates a new database instance
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	database := &Database{db: db}

	// Auto-migrate the schema
	err = db.AutoMigrate(&UserPreferences{}, &JobRecord{})
	if err != nil {
		return nil, err
	}

	return database, nil
}

// GetPreferences gets the current user preferences
func (d *Database) GetPreferences() (*UserPreferencesData, error) {
	prefs, err := d.getOrCreatePreferences()
	if err != nil {
		return nil, err
	}

	prefsData := prefs.GetPreferences()
	return &prefsData, nil
}

// UpdatePreferences updates user preferences
func (d *Database) UpdatePreferences(data map[string]interface{}) error {
	prefs, err := d.getOrCreatePreferences()
	if err != nil {
		return err
	}

	currentPrefs := prefs.GetPreferences()

	// Update fields from request data
	if val, ok := data["default_quality_preset"]; ok {
		if preset, ok := val.(string); ok {
			currentPrefs.DefaultQualityPreset = preset
		}
	}

	if val, ok := data["default_resolution_dpi"]; ok {
		if dpi, ok := val.(float64); ok {
			currentPrefs.DefaultResolutionDPI = dpi
		}
	}

	if val, ok := data["default_downsample_threshold"]; ok {
		if threshold, ok := val.(float64); ok {
			currentPrefs.DefaultDownsampleThreshold = threshold
		}
	}

	if val, ok := data["default_grayscale"]; ok {
		if grayscale, ok := val.(bool); ok {
			currentPrefs.DefaultGrayscale = grayscale
		}
	}

	// Save updated preferences
	if err := prefs.SetPreferences(currentPrefs); err != nil {
		return err
	}

	return d.db.Save(prefs).Error
}

// SaveJobRecord persists the terminal outcome of a job
func (d *Database) SaveJobRecord(record *JobRecord) error {
	return d.db.Create(record).Error
}

// RecentJobs returns the most recent job records, newest first
func (d *Database) RecentJobs(limit int) ([]JobRecord, error) {
	var records []JobRecord
	err := d.db.Order("created_at desc").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetStats aggregates the whole job history
func (d *Database) GetStats() (*Stats, error) {
	var stats Stats

	if err := d.db.Model(&JobRecord{}).Count(&stats.TotalJobs).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&JobRecord{}).Where("status = ?", "completed").Count(&stats.CompletedJobs).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&JobRecord{}).Where("status = ?", "failed").Count(&stats.FailedJobs).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&JobRecord{}).Where("used_original = ?", true).Count(&stats.FallbackJobs).Error; err != nil {
		return nil, err
	}

	type sizeTotals struct {
		Original int64
		Output   int64
	}
	var totals sizeTotals
	err := d.db.Model(&JobRecord{}).
		Where("status = ?", "completed").
		Select("COALESCE(SUM(original_size), 0) as original, COALESCE(SUM(compressed_size), 0) as output").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	stats.TotalOriginalBytes = totals.Original
	stats.TotalOutputBytes = totals.Output
	stats.TotalDataSaved = totals.Original - totals.Output

	return &stats, nil
}

// getOrCreatePreferences gets existing preferences or creates default ones
func (d *Database) getOrCreatePreferences() (*UserPreferences, error) {
	var prefs UserPreferences

	// Try to get existing preferences with ID = 1
	result := d.db.First(&prefs, 1)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			// Create default preferences
			prefs = UserPreferences{
				ID: 1,
			}

			defaultPrefs := DefaultPreferences()
			if err := prefs.SetPreferences(defaultPrefs); err != nil {
				return nil, err
			}

			if err := d.db.Create(&prefs).Error; err != nil {
				return nil, err
			}
		} else {
			return nil, result.Error
		}
	}

	return &prefs, nil
}
