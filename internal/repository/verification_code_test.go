// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/cp-church/angular-prayerapp-sub007/internal/models"
	"github.com/cp-church/angular-prayerapp-sub007/internal/repository"
	"github.com/cp-church/angular-prayerapp-sub007/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVerificationCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(time.Hour)
	code := &models.VerificationCode{
		ID:         "abc123",
		Code:       "482913",
		ActionType: "preference_change",
		ActionData: models.ActionData(`{"receiveNewPrayerNotifications":false}`),
		Email:      "member@example.org",
		ExpiresAt:  expiresAt,
	}

	err := repo.CreateVerificationCode(ctx, code)
	require.NoError(t, err)

	found, err := repo.FindVerificationCode(ctx, "abc123", "482913")
	require.NoError(t, err)
	assert.Equal(t, "preference_change", found.ActionType)
	assert.Equal(t, "member@example.org", found.Email)
	assert.JSONEq(t, `{"receiveNewPrayerNotifications":false}`, string(found.ActionData))
	assert.WithinDuration(t, expiresAt, found.ExpiresAt, time.Second)
	assert.Nil(t, found.UsedAt)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestCreateVerificationCode_NilActionData(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	code := testutil.NewTestCode(t, repo, "1234", testutil.WithActionData(""))

	found, err := repo.FindVerificationCode(ctx, code.ID, "1234")
	require.NoError(t, err)
	assert.Nil(t, found.ActionData)
}

func TestFindVerificationCode_WrongCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	code := testutil.NewTestCode(t, repo, "482913")

	_, err := repo.FindVerificationCode(ctx, code.ID, "000000")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindVerificationCode_WrongID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestCode(t, repo, "482913")

	_, err := repo.FindVerificationCode(ctx, "missing", "482913")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMarkVerificationCodeUsed(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	code := testutil.NewTestCode(t, repo, "482913")
	usedAt := time.Now().UTC()

	ok, err := repo.MarkVerificationCodeUsed(ctx, code.ID, usedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.FindVerificationCode(ctx, code.ID, "482913")
	require.NoError(t, err)
	require.NotNil(t, found.UsedAt)
	assert.WithinDuration(t, usedAt, *found.UsedAt, time.Second)
}

func TestMarkVerificationCodeUsed_OnlyOnce(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	code := testutil.NewTestCode(t, repo, "482913")
	first := time.Now().UTC()

	ok, err := repo.MarkVerificationCodeUsed(ctx, code.ID, first)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.MarkVerificationCodeUsed(ctx, code.ID, first.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindVerificationCode(ctx, code.ID, "482913")
	require.NoError(t, err)
	require.NotNil(t, found.UsedAt)
	assert.WithinDuration(t, first, *found.UsedAt, time.Second, "used_at must not move")
}

func TestMarkVerificationCodeUsed_Unknown(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	ok, err := repo.MarkVerificationCodeUsed(context.Background(), "missing", time.Now())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteVerificationCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	code := testutil.NewTestCode(t, repo, "482913")

	require.NoError(t, repo.DeleteVerificationCode(ctx, code.ID))

	_, err := repo.FindVerificationCode(ctx, code.ID, "482913")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteExpiredVerificationCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := testutil.NewTestCode(t, repo, "1111", testutil.WithExpiry(now.Add(-time.Hour)))
	valid := testutil.NewTestCode(t, repo, "2222", testutil.WithExpiry(now.Add(time.Hour)))

	n, err := repo.DeleteExpiredVerificationCodes(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindVerificationCode(ctx, expired.ID, "1111")
	require.ErrorIs(t, err, repository.ErrNotFound)

	found, err := repo.FindVerificationCode(ctx, valid.ID, "2222")
	require.NoError(t, err)
	assert.Equal(t, valid.ID, found.ID)
}
