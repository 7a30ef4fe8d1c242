package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/visitwatch/internal/logging"
	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/recorder"
)

func newVisitCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "visit <id>...",
		Short: "Record a visit for one or more subjects",
		Long: "Record a visit now for each subject id. The current date and time " +
			"become the subject's last verification.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisit(cmd, rt, args, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the updated subjects as JSON")
	return cmd
}

func runVisit(cmd *cobra.Command, rt *runtime, ids []string, jsonOutput bool) error {
	c, err := rt.client()
	if err != nil {
		return err
	}
	rec := recorder.New(c, nil,
		recorder.WithClock(rt.clock),
		recorder.WithLogger(rt.logger("recorder")),
	)
	defer rec.Close()

	updated := make([]models.Subject, 0, len(ids))
	for _, id := range ids {
		subject, err := rec.RecordVisit(cmd.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return Exitf(ExitCodeFailure, "subject %q not found", id)
			}
			return Exitf(ExitCodeFailure, "record visit %s: %w", id, err)
		}
		subjectLog := logging.WithSubject(subject.ID)
		subjectLog.Info().
			Str("last_verified_date", subject.LastVerifiedDate).
			Msg("visit recorded")
		updated = append(updated, subject)
		if !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Visita registrada: %s (%s) em %s\n", subject.Name, subject.ID, subject.LastVerifiedDate)
		}
	}

	if jsonOutput {
		payload, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			return Exitf(ExitCodeFailure, "encode subjects: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	}
	return nil
}
