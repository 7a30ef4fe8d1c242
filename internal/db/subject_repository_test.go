package db

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/visitwatch/internal/models"
)

func seedSubjects() []models.Subject {
	return []models.Subject{
		{ID: "a1", Name: "Ana", CPF: "111.111.111-11", Active: true, LastVerifiedDate: "01/03/2025", VerifyFrequencyInDays: 10},
		{ID: "b2", Name: "Bruno", CPF: "222.222.222-22", Active: false, LastVerifiedDate: "2025/01/01", VerifyFrequencyInDays: 30},
		{ID: "c3", Name: "Cida", CPF: "333.333.333-33", Active: true, LastVerifiedDate: "05/03/2025 10:00:00", VerifyFrequencyInDays: 0},
	}
}

func TestSubjectRepository_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	stored, err := repo.Upsert(ctx, seedSubjects())
	require.NoError(t, err)
	require.Equal(t, seedSubjects(), stored)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, seedSubjects(), all)

	// Updating keeps the original position.
	changed := seedSubjects()[0]
	changed.Name = "Ana Maria"
	_, err = repo.Upsert(ctx, []models.Subject{changed})
	require.NoError(t, err)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "a1", all[0].ID)
	require.Equal(t, "Ana Maria", all[0].Name)
}

func TestSubjectRepository_UpsertAssignsIDs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubjectRepository(db)

	stored, err := repo.Upsert(context.Background(), []models.Subject{
		{Name: "Sem Id", CPF: "444", Active: true, LastVerifiedDate: "01/01/2025", VerifyFrequencyInDays: 7},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotEmpty(t, stored[0].ID)

	got, err := repo.Get(context.Background(), stored[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Sem Id", got.Name)
}

func TestSubjectRepository_UpsertRejectsInvalidBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	batch := seedSubjects()
	batch[1].LastVerifiedDate = "31/02/2025"
	batch[2].VerifyFrequencyInDays = -1

	_, err := repo.Upsert(ctx, batch)
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrInvalidDateFormat))
	require.True(t, errors.Is(err, models.ErrInvalidArgument))

	var validation *models.ValidationErrors
	require.True(t, errors.As(err, &validation))
	require.Equal(t, []string{"[1].last_verified_date", "[2].verify_frequency_in_days"}, validation.Fields())

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSubjectRepository_CreateDuplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	s := seedSubjects()[0]
	require.NoError(t, repo.Create(ctx, &s))
	dup := seedSubjects()[0]
	require.ErrorIs(t, repo.Create(ctx, &dup), ErrSubjectAlreadyExists)
}

func TestSubjectRepository_UpdateLastVerified(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, seedSubjects())
	require.NoError(t, err)

	updated, err := repo.UpdateLastVerified(ctx, "b2", "2025/03/09 14:30:05")
	require.NoError(t, err)
	require.Equal(t, "2025/03/09 14:30:05", updated.LastVerifiedDate)
	require.Equal(t, "Bruno", updated.Name)
	require.False(t, updated.Active)

	_, err = repo.UpdateLastVerified(ctx, "missing", "2025/03/09 14:30:05")
	require.ErrorIs(t, err, ErrSubjectNotFound)
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.UpdateLastVerified(ctx, "b2", "yesterday")
	require.ErrorIs(t, err, models.ErrInvalidDateFormat)

	got, err := repo.Get(ctx, "b2")
	require.NoError(t, err)
	require.Equal(t, "2025/03/09 14:30:05", got.LastVerifiedDate)
}

func TestSubjectRepository_GetAndDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewSubjectRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "a1")
	require.ErrorIs(t, err, ErrSubjectNotFound)

	_, err = repo.Upsert(ctx, seedSubjects())
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "a1"))
	require.ErrorIs(t, repo.Delete(ctx, "a1"), ErrSubjectNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open(context.Background(), Config{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubjectRepository(db)
	_, err = repo.Upsert(context.Background(), seedSubjects())
	require.NoError(t, err)
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Config{}, zerolog.Nop())
	require.Error(t, err)
}
