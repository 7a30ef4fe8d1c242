package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/visitwatch/internal/db"
	"github.com/tOgg1/visitwatch/internal/models"
	"github.com/tOgg1/visitwatch/internal/server"
	"github.com/tOgg1/visitwatch/internal/testutil"
)

var testNow = time.Date(2025, 3, 9, 14, 30, 5, 0, time.Local)

func seedSubjects() []models.Subject {
	return []models.Subject{
		{ID: "a1", Name: "Ana", CPF: "111.111.111-11", Active: true, LastVerifiedDate: "01/03/2025", VerifyFrequencyInDays: 10},
		{ID: "x1", Name: "Xavier", CPF: "222.222.222-22", Active: true, LastVerifiedDate: "2025/01/01", VerifyFrequencyInDays: 30},
		{ID: "z1", Name: "Zelia", CPF: "333.333.333-33", Active: true, LastVerifiedDate: "05/03/2025", VerifyFrequencyInDays: 7},
	}
}

func newTestService(t *testing.T) (*httptest.Server, *db.SubjectRepository) {
	t.Helper()
	testutil.SkipIfNoNetwork(t)
	ctx := context.Background()
	database, err := db.Open(ctx, db.Config{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	repo := db.NewSubjectRepository(database)
	_, err = repo.Upsert(ctx, seedSubjects())
	require.NoError(t, err)

	handler := server.NewHandler(repo, zerolog.Nop(), nil, func() time.Time { return testNow })
	srv := server.New(server.Config{}, handler, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rt := &runtime{clock: func() time.Time { return testNow }}
	cmd := newRootCmd("test", rt)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandFindsSubcommands(t *testing.T) {
	root := newRootCmd("dev", &runtime{})

	found, _, err := root.Find([]string{"ls"})
	require.NoError(t, err)
	require.Equal(t, "list", found.Name())

	found, _, err = root.Find([]string{"dashboard"})
	require.NoError(t, err)
	require.Equal(t, "ui", found.Name())

	for _, name := range []string{"visit", "serve", "import"} {
		found, _, err = root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, found.Name())
	}
}

func TestListPendingTab(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	out, err := runCLI(t, "", "--api-url", ts.URL, "list", "--tab", "pending")
	require.NoError(t, err)
	require.Contains(t, out, "Todos 3  Próximas Visitas 1  [Pendentes 1]")
	require.Contains(t, out, "Xavier")
	require.Contains(t, out, "31/01/2025 Pendente")
	require.NotContains(t, out, "Ana")
	require.Contains(t, out, "Página 1/1 · 1 linha(s)")
}

func TestListJSONSorted(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	out, err := runCLI(t, "", "--api-url", ts.URL, "list", "--json", "--sort", "-name")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, map[string]int{"all": 3, "soon": 1, "pending": 1}, got.Counts)
	require.Len(t, got.Rows, 3)
	require.Equal(t, []string{"z1", "x1", "a1"}, []string{got.Rows[0].ID, got.Rows[1].ID, got.Rows[2].ID})

	xavier := got.Rows[1]
	require.Equal(t, "overdue", xavier.Status)
	require.Equal(t, "Pendente", xavier.Badge)
	require.NotNil(t, xavier.DaysUntilDue)
	require.Equal(t, -37, *xavier.DaysUntilDue)
}

func TestListPagingAndHiddenColumns(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	out, err := runCLI(t, "", "--api-url", ts.URL, "list", "--page-size", "2", "--page", "2", "--hide", "cpf")
	require.NoError(t, err)
	require.Contains(t, out, "Zelia")
	require.NotContains(t, out, "Ana")
	require.NotContains(t, out, "333.333.333-33")
	require.Contains(t, out, "Página 2/2 · 3 linha(s)")
}

func TestListEmptyFilter(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	out, err := runCLI(t, "", "--api-url", ts.URL, "list", "--filter", "nobody")
	require.NoError(t, err)
	require.Contains(t, out, "Nenhum resultado encontrado.")
}

func TestListRejectsBadFlags(t *testing.T) {
	isolateConfig(t)

	cases := [][]string{
		{"list", "--tab", "later"},
		{"list", "--sort", "age"},
		{"list", "--page", "0"},
		{"list", "--hide", "name,cpf,frequency,last_verified,next_visit,status"},
	}
	for _, args := range cases {
		_, err := runCLI(t, "", args...)
		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr), "args %v: %v", args, err)
		require.Equal(t, ExitCodeUsage, exitErr.Code, "args %v", args)
	}
}

func TestListServiceDown(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)
	url := ts.URL
	ts.Close()

	_, err := runCLI(t, "", "--api-url", url, "list")
	require.Error(t, err)
	var transport *models.TransportError
	require.True(t, errors.As(err, &transport))
	require.Contains(t, err.Error(), "fetch subjects")
}

func TestVisitRecordsAndClearsPending(t *testing.T) {
	isolateConfig(t)
	ts, repo := newTestService(t)

	out, err := runCLI(t, "", "--api-url", ts.URL, "visit", "x1")
	require.NoError(t, err)
	require.Equal(t, "Visita registrada: Xavier (x1) em 2025/03/09 14:30:05\n", out)

	stored, err := repo.Get(context.Background(), "x1")
	require.NoError(t, err)
	require.Equal(t, "2025/03/09 14:30:05", stored.LastVerifiedDate)

	out, err = runCLI(t, "", "--api-url", ts.URL, "list", "--tab", "pending")
	require.NoError(t, err)
	require.Contains(t, out, "Nenhum usuário pendente.")
}

func TestVisitUnknownSubject(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	_, err := runCLI(t, "", "--api-url", ts.URL, "visit", "nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), `subject "nope" not found`)
}

func TestVisitJSON(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	out, err := runCLI(t, "", "--api-url", ts.URL, "visit", "--json", "a1", "z1")
	require.NoError(t, err)

	var got []models.Subject
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	require.Equal(t, "a1", got[0].ID)
	require.Equal(t, "2025/03/09 14:30:05", got[1].LastVerifiedDate)
}

func TestImportRemoteFromStdin(t *testing.T) {
	isolateConfig(t)
	ts, repo := newTestService(t)

	payload := `[{"name":"Bruno","cpf":"444","active":true,"last_verified_date":"08/03/2025","verify_frequency_in_days":1}]`
	out, err := runCLI(t, payload, "--api-url", ts.URL, "import", "-")
	require.NoError(t, err)
	require.Equal(t, "imported 1 subject(s)\n", out)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestImportRemoteValidationError(t *testing.T) {
	isolateConfig(t)
	ts, _ := newTestService(t)

	payload := `[{"id":"b1","name":"Bruno","cpf":"444","active":true,"last_verified_date":"31/02/2025","verify_frequency_in_days":1}]`
	_, err := runCLI(t, payload, "--api-url", ts.URL, "import", "-")
	require.Error(t, err)
	var transport *models.TransportError
	require.True(t, errors.As(err, &transport))
	require.Equal(t, 400, transport.StatusCode)
}

func TestImportDirect(t *testing.T) {
	home := isolateConfig(t)
	file := filepath.Join(home, "subjects.json")
	data, err := json.Marshal(seedSubjects())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o644))
	dbPath := filepath.Join(home, "data", "visitwatch.db")

	out, err := runCLI(t, "", "import", "--direct", "--db", dbPath, "--json", file)
	require.NoError(t, err)
	var stored []models.Subject
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	require.Len(t, stored, 3)

	database, err := db.Open(context.Background(), db.Config{Path: dbPath}, zerolog.Nop())
	require.NoError(t, err)
	defer database.Close()
	n, err := db.NewSubjectRepository(database).Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestImportRejectsBadInput(t *testing.T) {
	isolateConfig(t)

	_, err := runCLI(t, `[]`, "import", "-")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no subjects")

	_, err = runCLI(t, `[{"nome":"x"}]`, "import", "-")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse subjects")

	_, err = runCLI(t, `[]`, "import", "--db", "x.db", "-")
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitCodeUsage, exitErr.Code)
}

func TestUIRequiresTerminal(t *testing.T) {
	isolateConfig(t)
	if hasTTY() {
		t.Skip("test runs attached to a terminal")
	}
	_, err := runCLI(t, "", "ui")
	require.Error(t, err)
	require.Contains(t, err.Error(), "interactive terminal")
}

func TestDashboardConfigFlagsOverride(t *testing.T) {
	isolateConfig(t)
	rt := &runtime{clock: func() time.Time { return testNow }}
	cmd := newRootCmd("test", rt)
	cmd.SetArgs([]string{"list", "--help"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, rt.init(cmd))

	cfg, err := rt.dashboardConfig(uiFlags{theme: "high-contrast", pageSize: 25})
	require.NoError(t, err)
	require.Equal(t, "high-contrast", cfg.Theme)
	require.Equal(t, 25, cfg.PageSize)
	require.NotNil(t, cfg.Source)
	require.Equal(t, testNow, cfg.Clock())
}

func TestConfigErrorIsReported(t *testing.T) {
	isolateConfig(t)
	_, err := runCLI(t, "", "--log-level", "chatty", "list")
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}

func TestTextTableAlignsByDisplayWidth(t *testing.T) {
	tbl := &textTable{
		headers: []string{"Nome", "Dias"},
		align:   []alignment{alignLeft, alignRight},
	}
	tbl.addRow("Zélia", "7")
	tbl.addRow("Ana", "30")

	var buf bytes.Buffer
	require.NoError(t, tbl.write(&buf))
	require.Equal(t, "Nome   Dias\nZélia     7\nAna      30\n", buf.String())
}

func TestTextTableTruncates(t *testing.T) {
	tbl := &textTable{headers: []string{"Nome"}, maxWidth: 5}
	tbl.addRow("Maximiliano")

	var buf bytes.Buffer
	require.NoError(t, tbl.write(&buf))
	require.Equal(t, "Nome\nMaxi…\n", buf.String())
}
