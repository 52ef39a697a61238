// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/models"
)

// CreateVerificationCode stores a newly issued verification code.
func (r *Repository) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_codes (id, code, action_type, action_data, email, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		code.ID, code.Code, code.ActionType, code.ActionData, code.Email, code.ExpiresAt.UTC())
	return err
}

// FindVerificationCode looks up a code by id and code value in one query.
// A wrong id and a wrong code are indistinguishable to the caller.
func (r *Repository) FindVerificationCode(ctx context.Context, id, code string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.GetContext(ctx, &vc,
		`SELECT * FROM verification_codes WHERE id = ? AND code = ?`, id, code)
	if err != nil {
		return nil, wrapError(err)
	}
	return &vc, nil
}

// MarkVerificationCodeUsed sets used_at if it is still unset.
// It returns false when the code was already consumed.
func (r *Repository) MarkVerificationCodeUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verification_codes SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		usedAt.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteVerificationCode deletes a code by ID.
func (r *Repository) DeleteVerificationCode(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE id = ?`, id)
	return err
}

// DeleteExpiredVerificationCodes deletes codes that expired before now.
func (r *Repository) DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
