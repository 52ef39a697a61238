// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// VerificationCode is a short-lived numeric code emailed to authorize one action.
type VerificationCode struct { //nolint:govet // fieldalignment: readability over optimization
	ID         string     `db:"id" json:"id"`
	Code       string     `db:"code" json:"code"`
	ActionType string     `db:"action_type" json:"action_type"`
	ActionData ActionData `db:"action_data" json:"action_data"`
	Email      string     `db:"email" json:"email"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt     *time.Time `db:"used_at" json:"used_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// IsUsed reports whether the code has already been redeemed.
func (v *VerificationCode) IsUsed() bool {
	return v.UsedAt != nil
}

// IsExpired reports whether now is past the expiry instant.
func (v *VerificationCode) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// ActionData is the opaque JSON payload handed back on redemption.
// A nil value encodes as JSON null.
type ActionData json.RawMessage

// MarshalJSON implements json.Marshaler.
func (a ActionData) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return []byte(a), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *ActionData) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}
	*a = append((*a)[:0], data...)
	return nil
}

// Value implements driver.Valuer.
func (a ActionData) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	return string(a), nil
}

// Scan implements sql.Scanner.
func (a *ActionData) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = nil
	case string:
		*a = ActionData(v)
	case []byte:
		*a = append(ActionData(nil), v...)
	default:
		return fmt.Errorf("unsupported action_data type %T", src)
	}
	if len(*a) > 0 && !json.Valid([]byte(*a)) {
		return fmt.Errorf("action_data is not valid JSON")
	}
	return nil
}
