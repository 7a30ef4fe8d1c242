// Package visitd assembles the subject service: database, repository,
// HTTP handler and listener.
package visitd

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/visitwatch/internal/config"
	"github.com/tOgg1/visitwatch/internal/db"
	"github.com/tOgg1/visitwatch/internal/server"
)

// Options override parts of the loaded config.
type Options struct {
	// Addr replaces server.addr when set.
	Addr string

	// DatabasePath replaces the configured database path when set.
	DatabasePath string

	// Clock stamps visits recorded without a date. Defaults to time.Now.
	Clock func() time.Time
}

// Daemon is a ready-to-run subject service.
type Daemon struct {
	cfg     *config.Config
	logger  zerolog.Logger
	addr    string
	db      *db.DB
	repo    *db.SubjectRepository
	metrics *server.Metrics
	server  *server.Server
}

// New opens the database and builds the server. The caller owns Close.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = cfg.Server.Addr
	}
	dbPath := strings.TrimSpace(opts.DatabasePath)
	if dbPath == "" {
		dbPath = cfg.DatabasePath()
	}

	database, err := db.Open(ctx, db.Config{
		Path:           dbPath,
		MaxConnections: cfg.Database.MaxConnections,
		BusyTimeoutMs:  cfg.Database.BusyTimeoutMs,
	}, logger.With().Str("component", "db").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := db.NewSubjectRepository(database)
	metrics := server.NewMetrics()
	if n, err := repo.Count(ctx); err == nil {
		metrics.SetSubjects(n)
	}

	handler := server.NewHandler(repo, logger.With().Str("component", "api").Logger(), metrics, opts.Clock)
	srv := server.New(server.Config{
		Addr:            addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RequestTimeout:  cfg.Server.RequestTimeout,
	}, handler, logger, server.WithMetrics(metrics), server.WithReadiness(database.PingContext))

	return &Daemon{
		cfg:     cfg,
		logger:  logger,
		addr:    addr,
		db:      database,
		repo:    repo,
		metrics: metrics,
		server:  srv,
	}, nil
}

func (d *Daemon) Addr() string { return d.addr }
func (d *Daemon) Database() *db.DB { return d.db }
func (d *Daemon) SubjectRepository() *db.SubjectRepository { return d.repo }
func (d *Daemon) Server() *server.Server { return d.server }

// Run serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info().Str("addr", d.addr).Str("database", d.db.Path()).Msg("subject service starting")
	return d.server.Run(ctx)
}

// Serve is Run on an existing listener.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	return d.server.Serve(ctx, ln)
}

func (d *Daemon) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
