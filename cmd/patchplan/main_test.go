package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
	"github.com/dd0wney/cluso-patchplan/pkg/report"
)

var (
	ecommerce = filepath.Join("..", "..", "scenarios", "ecommerce.yaml")
	payments  = filepath.Join("..", "..", "scenarios", "payments.yaml")
	invalid   = filepath.Join("..", "..", "pkg", "scenario", "testdata", "invalid.yaml")
)

// execute runs the root command with args and returns what it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PATCHPLAN_LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rolling")
	metricsFile := filepath.Join(t.TempDir(), "patchplan.prom")

	out, err := execute(t, "simulate",
		"--scenario", ecommerce,
		"--strategy", planner.RollingName,
		"--out", dir,
		"--seed", "5",
		"--metrics-file", metricsFile,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "ecommerce/rolling: ")
	assert.Contains(t, out, "wrote 5 files to "+dir)

	manifest, err := report.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "ecommerce", manifest.Scenario)
	assert.Equal(t, planner.RollingName, manifest.Strategy)
	assert.Equal(t, int64(5), manifest.Seed)
	assert.Contains(t, manifest.Files, report.EventsFile)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `patchplan_plans_total{status="success",strategy="rolling"} 1`)
}

func TestSimulate_CompressedEventsFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATCHPLAN_STRATEGY", planner.BlueGreenName)
	t.Setenv("PATCHPLAN_COMPRESS_EVENTS", "true")

	_, err := execute(t, "simulate", "--scenario", ecommerce, "--out", dir)
	require.NoError(t, err)

	manifest, err := report.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, planner.BlueGreenName, manifest.Strategy)
	assert.Equal(t, int64(42), manifest.Seed)
	assert.Contains(t, manifest.Files, report.EventsCompressedFile)
}

func TestSimulate_AvailabilityViolation(t *testing.T) {
	_, err := execute(t, "simulate", "--scenario", ecommerce, "--strategy", planner.BigBangName, "--out", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bigbang: ")
	assert.Contains(t, err.Error(), "availability")
}

func TestPlanThenReplay(t *testing.T) {
	dir := t.TempDir()
	planFile := filepath.Join(dir, "plan.json")

	out, err := execute(t, "plan", "--scenario", ecommerce, "--strategy", planner.BlueGreenName, "--out", planFile)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 steps to "+planFile)

	replayDir := filepath.Join(dir, "replay")
	_, err = execute(t, "simulate", "--scenario", ecommerce, "--plan", planFile, "--out", replayDir)
	require.NoError(t, err)

	manifest, err := report.ReadManifest(replayDir)
	require.NoError(t, err)
	assert.Equal(t, planner.BlueGreenName, manifest.Strategy)
	assert.Empty(t, manifest.FinalStateViolations)
}

func TestPlan_Stdout(t *testing.T) {
	out, err := execute(t, "plan", "--scenario", payments, "--strategy", planner.HybridName)
	require.NoError(t, err)

	var plan infra.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, planner.HybridName, plan.Strategy)
	assert.NotEmpty(t, plan.Steps)
}

func TestPlan_DependencyCycle(t *testing.T) {
	_, err := execute(t, "plan", "--scenario", payments, "--strategy", planner.DepGreedyName)
	assert.ErrorIs(t, err, planner.ErrDependencyCycle)
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "compare",
		"--scenario", ecommerce,
		"--strategies", "rolling,bigbang",
		"--strategies", planner.BlueGreenName,
		"--parallelism", "2",
		"--out", dir,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "ecommerce (seed 42)")
	assert.Contains(t, out, "time_to_full_patch")
	assert.Contains(t, out, "bigbang failed (availability)")

	md, err := os.ReadFile(filepath.Join(dir, report.ComparisonMarkdownFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| Metric | rolling | bigbang | bluegreen |")

	raw, err := os.ReadFile(filepath.Join(dir, report.ComparisonJSONFile))
	require.NoError(t, err)
	var doc struct {
		Results []struct {
			Strategy string `json:"strategy"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.Results, 3)
}

func TestCompare_AllFailed(t *testing.T) {
	_, err := execute(t, "compare", "--scenario", ecommerce, "--strategies", planner.BigBangName)
	assert.EqualError(t, err, "all 1 strategies failed")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", ecommerce, payments)
	require.NoError(t, err)
	assert.Contains(t, out, ecommerce+": ok (ecommerce: 9 nodes, 8 edges, 9 patchable)")
	assert.Contains(t, out, payments+": ok (payments: 5 nodes, 5 edges, 4 patchable)")
	assert.Contains(t, out, "  dependency order: "+planner.ErrDependencyCycle.Error())

	out, err = execute(t, "validate", ecommerce, invalid)
	require.Error(t, err)
	assert.Contains(t, out, invalid+": invalid")
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing strategy",
			args: []string{"simulate", "--scenario", ecommerce, "--out", "x"},
			want: "Config.Strategy",
		},
		{
			name: "unknown strategy",
			args: []string{"plan", "--scenario", ecommerce, "--strategy", "yolo"},
			want: `"yolo" must be one of`,
		},
		{
			name: "bad batch size",
			args: []string{"plan", "--scenario", ecommerce, "--strategy", "rolling", "--batch-size", "0"},
			want: "Config.BatchSize",
		},
		{
			name: "bad log format",
			args: []string{"compare", "--scenario", ecommerce, "--log-format", "xml"},
			want: "Config.LogFormat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMissingScenario(t *testing.T) {
	_, err := execute(t, "plan", "--scenario", "does-not-exist.yaml", "--strategy", "rolling")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStrategiesAndVersion(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	for _, name := range planner.Names() {
		assert.Contains(t, out, name)
		assert.NotEmpty(t, strategyDescriptions[name], name)
	}

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "patchplan dev")
}
