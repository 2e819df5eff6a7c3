/*
settings.go - Typed key/value settings

PURPOSE:
  Small configuration values the desk staff change at runtime (default
  statement footer, sync toggles). Each value carries a type tag so a
  reader gets back what a writer stored, not whatever string parsing
  happens to produce.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
)

// Setting value type tags.
const (
	settingStr   = "str"
	settingInt   = "int"
	settingFloat = "float"
	settingBool  = "bool"
	settingJSON  = "json"
)

func (s *Store) getSetting(ctx context.Context, key, wantType string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value, valueType string
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(value, ''), value_type FROM settings WHERE key = ?", key,
	).Scan(&value, &valueType)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapErr("query setting", err)
	}
	if valueType != wantType {
		return "", false, fmt.Errorf("setting %q has type %s, want %s", key, valueType, wantType)
	}
	return value, true, nil
}

func (s *Store) putSetting(ctx context.Context, key, value, valueType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, value_type)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			value_type = excluded.value_type`,
		key, value, valueType,
	)
	return mapErr("put setting", err)
}

// SettingString returns the string setting, or fallback when unset.
func (s *Store) SettingString(ctx context.Context, key, fallback string) (string, error) {
	v, ok, err := s.getSetting(ctx, key, settingStr)
	if err != nil || !ok {
		return fallback, err
	}
	return v, nil
}

// SetSettingString stores a string setting.
func (s *Store) SetSettingString(ctx context.Context, key, value string) error {
	return s.putSetting(ctx, key, value, settingStr)
}

// SettingInt returns the int setting, or fallback when unset.
func (s *Store) SettingInt(ctx context.Context, key string, fallback int64) (int64, error) {
	v, ok, err := s.getSetting(ctx, key, settingInt)
	if err != nil || !ok {
		return fallback, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("setting %q: %w", key, err)
	}
	return n, nil
}

// SetSettingInt stores an int setting.
func (s *Store) SetSettingInt(ctx context.Context, key string, value int64) error {
	return s.putSetting(ctx, key, strconv.FormatInt(value, 10), settingInt)
}

// SettingFloat returns the float setting, or fallback when unset.
func (s *Store) SettingFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	v, ok, err := s.getSetting(ctx, key, settingFloat)
	if err != nil || !ok {
		return fallback, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("setting %q: %w", key, err)
	}
	return f, nil
}

// SetSettingFloat stores a float setting.
func (s *Store) SetSettingFloat(ctx context.Context, key string, value float64) error {
	return s.putSetting(ctx, key, strconv.FormatFloat(value, 'g', -1, 64), settingFloat)
}

// SettingBool returns the bool setting, or fallback when unset.
func (s *Store) SettingBool(ctx context.Context, key string, fallback bool) (bool, error) {
	v, ok, err := s.getSetting(ctx, key, settingBool)
	if err != nil || !ok {
		return fallback, err
	}
	return v == "1" || v == "true", nil
}

// SetSettingBool stores a bool setting.
func (s *Store) SetSettingBool(ctx context.Context, key string, value bool) error {
	v := "false"
	if value {
		v = "true"
	}
	return s.putSetting(ctx, key, v, settingBool)
}

// SettingJSON unmarshals the stored JSON setting into out. Returns false
// when unset, leaving out untouched.
func (s *Store) SettingJSON(ctx context.Context, key string, out any) (bool, error) {
	v, ok, err := s.getSetting(ctx, key, settingJSON)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return false, fmt.Errorf("setting %q: %w", key, err)
	}
	return true, nil
}

// SetSettingJSON marshals value and stores it as a JSON setting.
func (s *Store) SetSettingJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return s.putSetting(ctx, key, string(raw), settingJSON)
}
