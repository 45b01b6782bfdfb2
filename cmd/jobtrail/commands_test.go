package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrail/internal/config"
	"jobtrail/internal/record"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	for _, k := range []string{
		"CONFIG_PATH", "STORE_DRIVER", "SQLITE_PATH", "DATABASE_DSN",
		"LOG_LEVEL", "LOG_FILE", "TAXONOMY_PATH", "METRICS_ADDR", "CLIENT_SECRET_JSON",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("JOBTRAIL_HOME", home)
	return home
}

// run executes the command tree with args. Flag variables keep their values
// between executions, so they are reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose = false
	fetchDryRun = false
	listStage, listSearch, listJSON = "all", "", false
	addSubject, addSender, addStage, addDate = "", "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsRoundTrip(t *testing.T) {
	home := isolate(t)

	out, err := run(t, "add", "--subject", "Interview with Acme", "--sender", "Acme Talent <talent@acme.com>",
		"--stage", "Interview", "--date", "2024-05-02")
	require.NoError(t, err)
	interviewID := strings.TrimSpace(out)
	require.NotEmpty(t, interviewID)

	_, err = run(t, "add", "--subject", "Interview with Acme", "--sender", "Acme Talent <talent@acme.com>",
		"--stage", "interview", "--date", "2024-05-02")
	assert.ErrorIs(t, err, record.ErrDuplicate)

	_, err = run(t, "add", "--subject", "Thanks for applying to Globex", "--sender", "jobs@globex.com",
		"--stage", "application", "--date", "2024-05-01")
	require.NoError(t, err)

	out, err = run(t, "list", "--json")
	require.NoError(t, err)
	var rows []listRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, interviewID, rows[0].ID, "newest first")
	assert.Equal(t, "interview", rows[0].Stage)

	out, err = run(t, "list", "--stage", "application")
	require.NoError(t, err)
	assert.Contains(t, out, "Thanks for applying to Globex")
	assert.NotContains(t, out, "Interview with Acme")

	out, err = run(t, "list", "--search", "nothing-matches")
	require.NoError(t, err)
	assert.Contains(t, out, "No job emails found.")

	_, err = run(t, "relabel", interviewID, "ghosted")
	assert.ErrorIs(t, err, record.ErrInvalidStage)

	out, err = run(t, "relabel", interviewID, "offer")
	require.NoError(t, err)
	assert.Contains(t, out, "Relabelled")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total tracked: 2")
	assert.Contains(t, out, "Response rate: 0.0%")
	assert.Contains(t, out, "Offer rate:    100.0%")

	out, err = run(t, "delete", interviewID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 record(s)")

	_, err = run(t, "delete", interviewID)
	assert.ErrorIs(t, err, record.ErrNotFound)

	out, err = run(t, "list", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 1)

	assert.FileExists(t, filepath.Join(home, "jobtrail.db"))
	assert.FileExists(t, filepath.Join(home, "jobtrail.log"))
}

func TestStatsWithoutApplications(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_DRIVER", config.DriverMemory)

	out, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total tracked: 0")
	assert.Contains(t, out, "Response rate: n/a")
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, `unknown store driver "mysql"`)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-05-02T09:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 7, 30, 0, 0, time.UTC), got)

	got, err = parseDate("2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local).UTC(), got)

	_, err = parseDate("May 2")
	assert.Error(t, err)
}

func TestScratchCopyKeepsDuplicates(t *testing.T) {
	isolate(t)
	_, err := run(t, "add", "--subject", "Application received", "--sender", "jobs@acme.com", "--date", "2024-05-01")
	require.NoError(t, err)

	a, err := openApp(context.Background())
	require.NoError(t, err)
	defer a.Close()

	scratch, err := scratchCopy(context.Background(), a.store)
	require.NoError(t, err)
	all, err := scratch.List(context.Background(), record.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	found, err := scratch.FindByTriple(context.Background(), all[0].Subject, all[0].Sender, all[0].ReceivedAt)
	require.NoError(t, err)
	assert.NotNil(t, found)
}
