package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/schedule"
	"github.com/tOgg1/visitwatch/internal/table"
)

var visitTime = time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)

type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	store map[string]models.Subject
	err   error

	// block, when set, holds every call until it is closed.
	block   chan struct{}
	started chan string
}

func (f *fakeRemote) RecordVisitRemote(ctx context.Context, id, now string) (models.Subject, error) {
	if f.started != nil {
		f.started <- id
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return models.Subject{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id+"@"+now)
	if f.err != nil {
		return models.Subject{}, f.err
	}
	s, ok := f.store[id]
	if !ok {
		return models.Subject{}, &models.TransportError{Op: OpRecordVisit, StatusCode: 404, Err: models.ErrNotFound}
	}
	s.LastVerifiedDate = now
	f.store[id] = s
	return s, nil
}

func scenarioSubjects() []models.Subject {
	return []models.Subject{
		{ID: "a1", Name: "Ana", CPF: "111", Active: true, LastVerifiedDate: "01/03/2025", VerifyFrequencyInDays: 10},
		{ID: "x1", Name: "Xavier", CPF: "222", Active: true, LastVerifiedDate: "2025/01/01", VerifyFrequencyInDays: 30},
		{ID: "z1", Name: "Zelia", CPF: "333", Active: true, LastVerifiedDate: "05/03/2025", VerifyFrequencyInDays: 7},
	}
}

func newFixture(t *testing.T) (*fakeRemote, *table.Engine) {
	t.Helper()
	remote := &fakeRemote{store: make(map[string]models.Subject)}
	for _, s := range scenarioSubjects() {
		remote.store[s.ID] = s
	}
	engine := table.NewEngine(
		table.WithClock(func() time.Time { return visitTime }),
		table.WithClassifier(schedule.Classifier{Location: time.UTC}),
	)
	engine.SetWorkingSet(scenarioSubjects())
	return remote, engine
}

func TestRecordVisitMergesInPlace(t *testing.T) {
	remote, engine := newFixture(t)
	rec := New(remote, engine, WithClock(func() time.Time { return visitTime }))

	updated, err := rec.RecordVisit(context.Background(), "x1")
	require.NoError(t, err)
	require.Equal(t, "2025/03/09 14:30:05", updated.LastVerifiedDate)
	require.Equal(t, []string{"x1@2025/03/09 14:30:05"}, remote.calls)

	subjects := engine.Subjects()
	require.Len(t, subjects, 3)
	require.Equal(t, []string{"a1", "x1", "z1"}, []string{subjects[0].ID, subjects[1].ID, subjects[2].ID})
	require.Equal(t, "2025/03/09 14:30:05", subjects[1].LastVerifiedDate)

	info, err := schedule.Classifier{Location: time.UTC}.Classify(subjects[1], visitTime)
	require.NoError(t, err)
	require.Equal(t, 30, info.DaysUntilDue)
	require.False(t, info.IsPending)
	require.Empty(t, engine.FilteredFor(table.TabPending))
}

func TestRecordVisitRejectsEmptyID(t *testing.T) {
	remote, engine := newFixture(t)
	rec := New(remote, engine)

	_, err := rec.RecordVisit(context.Background(), "  ")
	require.True(t, errors.Is(err, models.ErrInvalidArgument))
	require.Empty(t, remote.calls)
}

func TestRecordVisitFailureLeavesSetUntouched(t *testing.T) {
	remote, engine := newFixture(t)
	remote.err = errors.New("connection refused")
	rec := New(remote, engine, WithClock(func() time.Time { return visitTime }))

	_, err := rec.RecordVisit(context.Background(), "x1")
	require.Error(t, err)

	var te *models.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, OpRecordVisit, te.Op)
	require.Contains(t, err.Error(), "connection refused")
	require.Equal(t, scenarioSubjects(), engine.Subjects())
	require.False(t, rec.InFlight("x1"))
}

func TestRecordVisitKeepsServiceTransportError(t *testing.T) {
	remote, engine := newFixture(t)
	rec := New(remote, engine)

	_, err := rec.RecordVisit(context.Background(), "missing")
	var te *models.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, 404, te.StatusCode)
	require.True(t, errors.Is(err, models.ErrNotFound))
}

func TestRecordVisitGuardsInFlight(t *testing.T) {
	remote, engine := newFixture(t)
	remote.block = make(chan struct{})
	remote.started = make(chan string, 1)
	rec := New(remote, engine)

	done := make(chan error, 1)
	go func() {
		_, err := rec.RecordVisit(context.Background(), "x1")
		done <- err
	}()
	require.Equal(t, "x1", <-remote.started)
	require.True(t, rec.InFlight("x1"))

	_, err := rec.RecordVisit(context.Background(), "x1")
	require.True(t, errors.Is(err, ErrVisitInFlight))

	close(remote.block)
	require.NoError(t, <-done)
	require.False(t, rec.InFlight("x1"))

	remote.started = nil
	_, err = rec.RecordVisit(context.Background(), "x1")
	require.NoError(t, err)
}

func TestRecordVisitDiscardsResultAfterClose(t *testing.T) {
	remote, engine := newFixture(t)
	remote.block = make(chan struct{})
	remote.started = make(chan string, 1)
	rec := New(remote, engine)

	done := make(chan error, 1)
	go func() {
		_, err := rec.RecordVisit(context.Background(), "x1")
		done <- err
	}()
	<-remote.started
	rec.Close()
	close(remote.block)

	require.True(t, errors.Is(<-done, ErrClosed))
	require.Equal(t, scenarioSubjects(), engine.Subjects())

	_, err := rec.RecordVisit(context.Background(), "a1")
	require.True(t, errors.Is(err, ErrClosed))
}

type mismatchRemote struct{}

func (mismatchRemote) RecordVisitRemote(context.Context, string, string) (models.Subject, error) {
	return models.Subject{ID: "other"}, nil
}

func TestRecordVisitRejectsMismatchedAnswer(t *testing.T) {
	_, engine := newFixture(t)
	rec := New(mismatchRemote{}, engine)

	_, err := rec.RecordVisit(context.Background(), "x1")
	require.True(t, models.IsTransport(err))
	require.True(t, errors.Is(err, models.ErrInvalidArgument))
	require.Equal(t, scenarioSubjects(), engine.Subjects())
}

func TestRecordVisitWithoutSink(t *testing.T) {
	remote, _ := newFixture(t)
	rec := New(remote, nil, WithClock(func() time.Time { return visitTime }))

	updated, err := rec.RecordVisit(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "a1", updated.ID)
}
