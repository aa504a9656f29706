package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Setting keys.
const (
	KeyLastDevice  = "last_device"
	KeyLastStyle   = "last_style"
	KeyLastVariant = "last_variant"
)

// SettingsRepository reads and writes key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// GetOr returns the value stored under key, or def when it is not set.
func (r *SettingsRepository) GetOr(key, def string) (string, error) {
	v, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// SetMany stores every pair in one transaction.
func (r *SettingsRepository) SetMany(values map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for key, value := range values {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// StyleSetting is the last variant and parameters used with a style.
type StyleSetting struct {
	Style     string         `json:"style"`
	Variant   string         `json:"variant"`
	Params    map[string]any `json:"params"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StyleSettingsRepository persists per-style parameters.
type StyleSettingsRepository struct {
	db *sql.DB
}

// StyleSettings returns the style settings repository for this store.
func (s *Store) StyleSettings() *StyleSettingsRepository {
	return &StyleSettingsRepository{db: s.db}
}

// Save replaces the stored settings for a style.
func (r *StyleSettingsRepository) Save(ss *StyleSetting) error {
	params, err := json.Marshal(ss.Params)
	if err != nil {
		return err
	}
	ss.UpdatedAt = time.Now()

	_, err = r.db.Exec(
		`INSERT INTO style_settings (style, variant, params, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(style) DO UPDATE SET
			variant = excluded.variant,
			params = excluded.params,
			updated_at = excluded.updated_at`,
		ss.Style, ss.Variant, string(params), ss.UpdatedAt,
	)
	return err
}

// Get returns the stored settings for style.
func (r *StyleSettingsRepository) Get(style string) (*StyleSetting, error) {
	ss := &StyleSetting{}
	var params string

	err := r.db.QueryRow(
		`SELECT style, variant, params, updated_at FROM style_settings WHERE style = ?`,
		style,
	).Scan(&ss.Style, &ss.Variant, &params, &ss.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(params), &ss.Params); err != nil {
		return nil, err
	}
	return ss, nil
}

// Delete removes the stored settings for style.
func (r *StyleSettingsRepository) Delete(style string) error {
	result, err := r.db.Exec(`DELETE FROM style_settings WHERE style = ?`, style)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
