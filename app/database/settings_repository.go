package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SettingsRepo handles the singleton schedule settings row.
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) GetScheduleSettings() (*ScheduleSettings, error) {
	var s ScheduleSettings
	var start, end sql.NullTime
	err := r.db.QueryRow(`
		SELECT enabled, schedule_type, schedule_day, schedule_hour,
		       search_start_date, search_end_date, updated_at
		FROM schedule_settings WHERE id = 1
	`).Scan(&s.Enabled, &s.ScheduleType, &s.ScheduleDay, &s.ScheduleHour,
		&start, &end, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule settings: %w", err)
	}
	s.SearchStartDate = timePtr(start)
	s.SearchEndDate = timePtr(end)
	return &s, nil
}

func (r *SettingsRepo) UpdateScheduleSettings(settings ScheduleSettings) error {
	_, err := r.db.Exec(`
		UPDATE schedule_settings
		SET enabled = ?, schedule_type = ?, schedule_day = ?, schedule_hour = ?,
		    search_start_date = ?, search_end_date = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, settings.Enabled, settings.ScheduleType, settings.ScheduleDay,
		settings.ScheduleHour, settings.SearchStartDate, settings.SearchEndDate)
	if err != nil {
		return fmt.Errorf("failed to update schedule settings: %w", err)
	}
	return nil
}

// GetSearchWindow returns the configured research window. Zero times when
// either bound is unset; the orchestrator fails the job in that case.
func (r *SettingsRepo) GetSearchWindow() (time.Time, time.Time, error) {
	settings, err := r.GetScheduleSettings()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if settings.SearchStartDate == nil || settings.SearchEndDate == nil {
		return time.Time{}, time.Time{}, nil
	}
	return *settings.SearchStartDate, *settings.SearchEndDate, nil
}
