package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig writes a config that keeps all data under a temp dir.
func testConfig(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("CONTENTCAL_LOG_DIR", "")

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfg := "store:\n  driver: csv\n  data_dir: " + dataDir + "\ncache:\n  driver: none\n"
	path := filepath.Join(dir, "contentcal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path, dataDir
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestQuotasCommands(t *testing.T) {
	cfg, dataDir := testConfig(t)

	out, err := run(t, cfg, "quotas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PLATFORM")
	assert.Regexp(t, `Instagram\s+5`, out)
	assert.FileExists(t, filepath.Join(dataDir, "quotas.csv"))

	out, err = run(t, cfg, "quotas", "set", "YouTube", "2")
	require.NoError(t, err)
	assert.Regexp(t, `YouTube\s+2`, out)

	_, err = run(t, cfg, "quotas", "set", "YouTube", "two")
	assert.Error(t, err)

	_, err = run(t, cfg, "quotas", "set", "YouTube", "-1")
	assert.Error(t, err)
}

func TestEventsCommands(t *testing.T) {
	cfg, _ := testConfig(t)

	out, err := run(t, cfg, "events", "add",
		"--date", "2025-04-02", "--title", "Reel teaser", "--platform", "Instagram", "--status", "diseño")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = run(t, cfg, "events", "add", "--date", "04/02/2025", "--title", "x", "--platform", "Blog")
	assert.Error(t, err)

	out, err = run(t, cfg, "events", "list", "--year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-04-02")
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, id)

	out, err = run(t, cfg, "report", "--year", "2025", "--month", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "April 2025 (fixed weeks, 1 events)")
	assert.Regexp(t, `Week 1\s+1-7\s+Blog`, out)
	assert.Regexp(t, `Instagram\s+1\s+5\s+low`, out)

	out, err = run(t, cfg, "report", "--year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "Year 2025: 52 ISO weeks, 1 planned")

	out, err = run(t, cfg, "export", "--year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "Reel teaser")

	_, err = run(t, cfg, "events", "delete", id)
	require.NoError(t, err)
	_, err = run(t, cfg, "events", "delete", id)
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	cfg, dataDir := testConfig(t)
	_, err := run(t, cfg, "events", "add", "--date", "2025-05-01", "--title", "Launch", "--platform", "Blog")
	require.NoError(t, err)

	path := filepath.Join(dataDir, "out", "plan.ics")
	_, err = run(t, cfg, "export", "--out", path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Launch")
}

func TestDayRange(t *testing.T) {
	assert.Equal(t, "-", dayRange(nil))
}
