package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/visitwatch/internal/db"
	"github.com/tOgg1/visitwatch/internal/models"
)

type importFlags struct {
	direct bool
	dbPath string
	json   bool
}

func newImportCmd(rt *runtime) *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Seed the subject store from a JSON file",
		Long: "Import a JSON array of subjects. Subjects with an existing id are " +
			"updated in place; subjects without an id get a new one. By default the " +
			"file is sent to the subject service; --direct writes to the local database.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rt, args[0], f)
		},
	}
	cmd.Flags().BoolVar(&f.direct, "direct", false, "write to the local database instead of the service")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "database file for --direct (default <data_dir>/visitwatch.db)")
	cmd.Flags().BoolVar(&f.json, "json", false, "output the stored subjects as JSON")
	return cmd
}

func runImport(cmd *cobra.Command, rt *runtime, source string, f importFlags) error {
	if f.dbPath != "" && !f.direct {
		return usageError(cmd, "--db only applies with --direct")
	}

	subjects, err := readSubjects(cmd, source)
	if err != nil {
		return err
	}

	var stored []models.Subject
	if f.direct {
		stored, err = importDirect(cmd.Context(), rt, f.dbPath, subjects)
	} else {
		stored, err = importRemote(cmd.Context(), rt, subjects)
	}
	if err != nil {
		return err
	}

	if f.json {
		payload, err := json.MarshalIndent(stored, "", "  ")
		if err != nil {
			return Exitf(ExitCodeFailure, "encode subjects: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d subject(s)\n", len(stored))
	return nil
}

func readSubjects(cmd *cobra.Command, source string) ([]models.Subject, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(source) == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "read subjects: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var subjects []models.Subject
	if err := dec.Decode(&subjects); err != nil {
		return nil, Exitf(ExitCodeFailure, "parse subjects: %v", err)
	}
	if len(subjects) == 0 {
		return nil, Exitf(ExitCodeFailure, "no subjects in %s", source)
	}
	return subjects, nil
}

func importRemote(ctx context.Context, rt *runtime, subjects []models.Subject) ([]models.Subject, error) {
	c, err := rt.client()
	if err != nil {
		return nil, err
	}
	stored, err := c.ImportSubjects(ctx, subjects)
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "import subjects: %w", err)
	}
	return stored, nil
}

func importDirect(ctx context.Context, rt *runtime, path string, subjects []models.Subject) ([]models.Subject, error) {
	if path == "" {
		if err := rt.cfg.EnsureDirectories(); err != nil {
			return nil, Exitf(ExitCodeFailure, "create directories: %v", err)
		}
		path = rt.cfg.DatabasePath()
	}
	database, err := db.Open(ctx, db.Config{
		Path:           path,
		MaxConnections: rt.cfg.Database.MaxConnections,
		BusyTimeoutMs:  rt.cfg.Database.BusyTimeoutMs,
	}, rt.logger("db"))
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "open database: %v", err)
	}
	defer database.Close()

	stored, err := db.NewSubjectRepository(database).Upsert(ctx, subjects)
	if err != nil {
		return nil, Exitf(ExitCodeFailure, "import subjects: %w", err)
	}
	return stored, nil
}
