package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
	"github.com/ritualhelper/defer-sync/internal/plan"
	"github.com/ritualhelper/defer-sync/internal/pricing"
	"github.com/ritualhelper/defer-sync/internal/pricing/pricingtest"
	"github.com/ritualhelper/defer-sync/internal/status"
	"github.com/ritualhelper/defer-sync/internal/versions"
)

// env is a private config file, settings store and state dir for one test
type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T, baseURL string) *env {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`api:
  baseURL: %q
  leagueName: Standard
rateLimit:
  spacing: 1ms
sync:
  minValueFloor: 1
  categories: [currency]
`, baseURL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	return &env{dir: dir, config: cfgPath}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{
		"--config", e.config,
		"--store-type", "file",
		"--store-path", filepath.Join(e.dir, "settings.json"),
		"--state-dir", filepath.Join(e.dir, "state"),
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncListPlanStatus(t *testing.T) {
	t.Parallel()

	srv := pricingtest.NewServer(t)
	srv.SetPages(pricing.CategoryCurrency, []pricingtest.Item{
		{Text: "Divine Orb", Price: 250},
		{Text: "Chaos Orb", Price: 12},
		{Text: "Scroll of Wisdom", Price: 0.01},
	})
	e := newEnv(t, srv.URL)

	out, err := e.run(t, "sync", "--format", "json", "--league", "Dawn of the Hunt")
	require.NoError(t, err)
	var st status.SyncStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, 2, st.APICount)
	assert.Equal(t, []string{"Dawn of the Hunt"}, srv.Leagues())

	out, err = e.run(t, "list", "--format", "json")
	require.NoError(t, err)
	var entries []deferlist.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Equal(t, []deferlist.Entry{
		deferlist.NewAPIEntry("Divine Orb", 7),
		deferlist.NewAPIEntry("Chaos Orb", 3),
	}, entries)

	out, err = e.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Divine Orb")

	candidates := filepath.Join(e.dir, "candidates.json")
	require.NoError(t, os.WriteFile(candidates, []byte(`[
		{"id": "slot-1", "baseName": "Chaos Orb", "stackSize": 3},
		{"id": "slot-2", "baseName": "Scroll of Wisdom", "stackSize": 40},
		{"id": "slot-3", "baseName": "Divine Orb", "stackSize": 1},
		{"id": "slot-4", "baseName": "Divine Orb", "stackSize": 1, "deferred": true}
	]`), 0600))

	out, err = e.run(t, "plan", "--candidates", candidates, "--format", "json")
	require.NoError(t, err)
	var clicks []plan.Click
	require.NoError(t, json.Unmarshal([]byte(out), &clicks))
	require.Len(t, clicks, 2)
	assert.Equal(t, "slot-3", clicks[0].Candidate.ID)
	assert.Equal(t, "slot-1", clicks[1].Candidate.ID)

	out, err = e.run(t, "plan", "--candidates", candidates, "--format", "json", "--defer-existing")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &clicks))
	assert.Len(t, clicks, 3)

	out, err = e.run(t, "status", "--format", "json")
	require.NoError(t, err)
	var saved status.SyncStatus
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, st.RunID, saved.RunID)
	assert.Equal(t, status.SyncPhaseComplete, saved.Phase)
}

func TestSync_FirstPageFailureKeepsList(t *testing.T) {
	t.Parallel()

	srv := pricingtest.NewServer(t)
	srv.SetPages(pricing.CategoryCurrency, []pricingtest.Item{{Text: "Divine Orb", Price: 250}})
	e := newEnv(t, srv.URL)

	_, err := e.run(t, "sync", "--mode", "replace")
	require.NoError(t, err)

	srv.FailPage(pricing.CategoryCurrency, 1, 500)
	out, err := e.run(t, "sync", "--format", "json")
	require.NoError(t, err)
	var st status.SyncStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, status.SyncPhaseSkipped, st.Phase, "a fresh process has no cached prices to fall back on")

	out, err = e.run(t, "list", "--format", "json")
	require.NoError(t, err)
	var entries []deferlist.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 1)
}

func TestSync_InvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "negative min value", args: []string{"sync", "--min-value", "-2"}},
		{name: "unparseable min value", args: []string{"sync", "--min-value", "lots"}},
		{name: "unknown mode", args: []string{"sync", "--mode", "append"}},
		{name: "unknown format", args: []string{"list", "--format", "xml"}},
		{name: "plan without candidates", args: []string{"plan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := pricingtest.NewServer(t)
			e := newEnv(t, srv.URL)
			_, err := e.run(t, tt.args...)
			require.Error(t, err)
			assert.Zero(t, srv.TotalRequests())
		})
	}
}

func TestSettings(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "http://127.0.0.1:1")

	_, err := e.run(t, "settings", "set", "minValueFloor", " 2.50 ")
	require.NoError(t, err)
	_, err = e.run(t, "settings", "set", "replaceMode", "TRUE")
	require.NoError(t, err)

	out, err := e.run(t, "settings", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "(unset)")

	out, err = e.run(t, "settings", "get", "minValueFloor")
	require.NoError(t, err)
	assert.Contains(t, out, "2.5")
	assert.NotContains(t, out, "replaceMode")

	_, err = e.run(t, "settings", "get", "curatedList")
	assert.Error(t, err)
}

func TestNormalizeSetting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{key: "leagueName", value: "  Standard ", want: "Standard"},
		{key: "leagueName", value: " ", wantErr: true},
		{key: "minValueFloor", value: "0", want: "0"},
		{key: "minValueFloor", value: "1.50", want: "1.5"},
		{key: "minValueFloor", value: "-1", wantErr: true},
		{key: "syncIntervalMinutes", value: "15", want: "15"},
		{key: "syncIntervalMinutes", value: "0", wantErr: true},
		{key: "syncIntervalMinutes", value: "1.5", wantErr: true},
		{key: "deferExisting", value: "0", want: "false"},
		{key: "replaceMode", value: "maybe", wantErr: true},
		{key: "lastSyncTime", value: "2025-01-01T00:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			got, err := normalizeSetting(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--format", "json"})
	require.NoError(t, cmd.Execute())

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)
}
