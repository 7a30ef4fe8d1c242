// Package recorder records a visit for one subject: it stamps the current
// time, asks the subject service to persist it, and merges the updated
// subject back into the working set.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/schedule"
)

// OpRecordVisit names the remote operation in transport errors.
const OpRecordVisit = "record_visit"

var (
	// ErrVisitInFlight is returned while a visit for the same subject is still pending.
	ErrVisitInFlight = errors.New("a visit for this subject is already being recorded")

	// ErrClosed is returned once the recorder has been torn down. Results that
	// arrive after Close are discarded.
	ErrClosed = errors.New("recorder is closed")
)

// Remote persists a visit on the subject service and returns the updated subject.
type Remote interface {
	RecordVisitRemote(ctx context.Context, id, now string) (models.Subject, error)
}

// Merger receives the updated subject. *table.Engine satisfies it.
type Merger interface {
	MergeSubject(models.Subject) error
}

// Recorder serializes visits per subject. Different subjects may be recorded
// concurrently.
type Recorder struct {
	remote Remote
	sink   Merger
	clock  func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	closed   bool
}

type Option func(*Recorder)

// WithClock sets the source of the visit timestamp.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// New creates a Recorder. sink may be nil when the caller merges results itself.
func New(remote Remote, sink Merger, opts ...Option) *Recorder {
	r := &Recorder{
		remote:   remote,
		sink:     sink,
		clock:    time.Now,
		logger:   zerolog.Nop(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordVisit stamps "now" as the subject's last verified date. On failure the
// working set is left untouched.
func (r *Recorder) RecordVisit(ctx context.Context, id string) (models.Subject, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Subject{}, fmt.Errorf("%w: subject id is empty", models.ErrInvalidArgument)
	}
	if err := r.acquire(id); err != nil {
		return models.Subject{}, err
	}
	defer r.release(id)

	now := schedule.FormatTimestamp(r.clock())
	log := r.logger.With().Str("subject_id", id).Str("visited_at", now).Logger()
	log.Debug().Msg("recording visit")

	updated, err := r.remote.RecordVisitRemote(ctx, id, now)
	if r.isClosed() {
		log.Debug().Msg("discarding visit result after close")
		return models.Subject{}, ErrClosed
	}
	if err != nil {
		log.Warn().Err(err).Msg("record visit failed")
		return models.Subject{}, asTransport(err)
	}

	if updated.ID == "" {
		updated.ID = id
	}
	if updated.ID != id {
		return models.Subject{}, &models.TransportError{
			Op:  OpRecordVisit,
			Err: fmt.Errorf("%w: service answered with subject %q", models.ErrInvalidArgument, updated.ID),
		}
	}

	if r.sink != nil {
		if err := r.sink.MergeSubject(updated); err != nil {
			return models.Subject{}, fmt.Errorf("failed to merge subject %s: %w", id, err)
		}
	}
	log.Info().Msg("visit recorded")
	return updated, nil
}

// InFlight reports whether a visit for id is pending.
func (r *Recorder) InFlight(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[id]
	return ok
}

// Close tears the recorder down. Pending calls finish but their results are dropped.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Recorder) acquire(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, busy := r.inFlight[id]; busy {
		return fmt.Errorf("%w: %s", ErrVisitInFlight, id)
	}
	r.inFlight[id] = struct{}{}
	return nil
}

func (r *Recorder) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

func (r *Recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func asTransport(err error) error {
	var te *models.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &models.TransportError{Op: OpRecordVisit, Err: err}
}
