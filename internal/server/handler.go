package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/schedule"
)

const maxBodyBytes = 1 << 20

// Store is the persistence the handler needs. *db.SubjectRepository satisfies it.
type Store interface {
	List(ctx context.Context) ([]models.Subject, error)
	Get(ctx context.Context, id string) (*models.Subject, error)
	UpdateLastVerified(ctx context.Context, id, date string) (*models.Subject, error)
	Upsert(ctx context.Context, subjects []models.Subject) ([]models.Subject, error)
}

// Handler wires the subject endpoints to a Store.
type Handler struct {
	store   Store
	logger  zerolog.Logger
	metrics *Metrics
	clock   func() time.Time
}

// NewHandler constructs a subject handler. clock stamps visits sent without a date.
func NewHandler(store Store, logger zerolog.Logger, metrics *Metrics, clock func() time.Time) *Handler {
	if clock == nil {
		clock = time.Now
	}
	return &Handler{store: store, logger: logger, metrics: metrics, clock: clock}
}

// Register mounts the subject endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subjects", h.handleList)
	r.Post("/subjects", h.handleImport)
	r.Get("/subjects/{id}", h.handleGet)
	r.Patch("/subjects/{id}", h.handleRecordVisit)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("list subjects failed")
		writeError(w, err)
		return
	}
	h.metrics.SetSubjects(len(subjects))
	writeJSON(w, http.StatusOK, subjects)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	subject, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

// handleRecordVisit handles PATCH /subjects/{id}. An empty body, or one
// without last_verified_date, records the visit at the server's clock.
func (h *Handler) handleRecordVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	log := h.logger.With().
		Str("request_id", middleware.GetReqID(ctx)).
		Str("subject_id", id).
		Logger()

	var req models.VisitRequest
	if err := decodeOptional(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	date := strings.TrimSpace(req.LastVerifiedDate)
	if date == "" {
		date = schedule.FormatTimestamp(h.clock())
	} else if _, err := schedule.Parse(date, nil); err != nil {
		h.fail(w, log, err)
		return
	}

	updated, err := h.store.UpdateLastVerified(ctx, id, date)
	if err != nil {
		h.fail(w, log, err)
		return
	}

	h.metrics.IncVisit()
	log.Info().Str("last_verified_date", date).Msg("visit recorded")
	writeJSON(w, http.StatusOK, updated)
}

// handleImport handles POST /subjects: a JSON array upserted in one transaction.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var subjects []models.Subject
	if err := decodeRequired(r, &subjects); err != nil {
		writeError(w, err)
		return
	}
	stored, err := h.store.Upsert(r.Context(), subjects)
	if err != nil {
		h.logger.Warn().Err(err).Int("count", len(subjects)).Msg("import rejected")
		writeError(w, err)
		return
	}
	h.logger.Info().Int("count", len(stored)).Msg("subjects imported")
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	e := fromError(err)
	h.metrics.IncVisitFailure(e.Code)
	if e.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("record visit failed")
	} else {
		log.Debug().Err(err).Msg("record visit rejected")
	}
	writeJSON(w, e.Status, e)
}

func decodeOptional(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return newError(CodeBadRequest, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), err)
	}
	return nil
}

func decodeRequired(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return newError(CodeBadRequest, http.StatusBadRequest, "request body is required", err)
		}
		return newError(CodeBadRequest, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), err)
	}
	return nil
}
