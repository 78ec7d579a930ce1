package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command against a temp data dir, an unreachable
// MineContext and the bundled samples.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	return runWithCommand(t, dataDir, args, nil)
}

// runWithCommand is run with a trailing "-- command..." for inspect.
func runWithCommand(t *testing.T, dataDir string, args, command []string) (string, error) {
	t.Helper()
	base := []string{
		"--data-dir", dataDir,
		"--base-url", "http://127.0.0.1:1",
		"--samples", filepath.Join("..", "..", "samples", "sample_activities.json"),
		"--log-level", "error",
	}
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	args = append(args, base...)
	if command != nil {
		args = append(append(args, "--"), command...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "mcagent v") {
		t.Errorf("output = %q", out)
	}
}

func TestMine_FallsBackToSamples(t *testing.T) {
	out, err := run(t, t.TempDir(), "mine", "--json", "--days", "30")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	var listing struct {
		Candidates []struct {
			CandidateID string `json:"candidate_id"`
			Title       string `json:"title"`
			Freq        int    `json:"freq"`
		} `json:"candidates"`
		TotalActivities int    `json:"total_activities"`
		Origin          string `json:"origin"`
		Days            int    `json:"days"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if listing.Origin != "samples" || listing.TotalActivities != 8 || listing.Days != 30 {
		t.Errorf("listing = %+v", listing)
	}
	if len(listing.Candidates) == 0 || listing.Candidates[0].Freq != 3 {
		t.Fatalf("candidates = %+v", listing.Candidates)
	}
}

func TestMine_Table(t *testing.T) {
	out, err := run(t, t.TempDir(), "mine")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if !strings.Contains(out, "8 activities from samples") || !strings.Contains(out, "FREQ") {
		t.Errorf("output = %s", out)
	}
}

func TestEvidence_UnknownCandidate(t *testing.T) {
	_, err := run(t, t.TempDir(), "evidence", "candidate_999")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestEvidence_RequiresID(t *testing.T) {
	if _, err := run(t, t.TempDir(), "evidence"); err == nil {
		t.Error("expected an argument error")
	}
}

func TestExport_PRDFormats(t *testing.T) {
	dataDir := t.TempDir()
	out, err := run(t, dataDir, "mine", "--json")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	var listing struct {
		Candidates []struct {
			CandidateID string `json:"candidate_id"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil || len(listing.Candidates) == 0 {
		t.Fatalf("mine output: %v\n%s", err, out)
	}
	id := listing.Candidates[0].CandidateID

	outDir := filepath.Join(t.TempDir(), "prd")
	out, err = run(t, dataDir, "export", id, "--format", "yaml", "--output-dir", outDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	path := strings.TrimSpace(out)
	if filepath.Dir(path) != outDir || filepath.Ext(path) != ".yaml" {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("PRD not written: %v", err)
	}
}

func TestExport_All(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "bundles")
	out, err := run(t, t.TempDir(), "export", "--all", "--top-n", "2", "--output-dir", outDir)
	if err != nil {
		t.Fatalf("export --all: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Errorf("output = %q, want 2 bundles", out)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil || len(entries) != 6 {
		t.Errorf("bundle dir has %d files, want 6 (err %v)", len(entries), err)
	}
}

func TestExport_AllRejectsPRDFormat(t *testing.T) {
	if _, err := run(t, t.TempDir(), "export", "--all", "--format", "md"); err == nil {
		t.Error("expected an error for --all with a PRD format")
	}
}

func TestCache_ListAndClear(t *testing.T) {
	dataDir := t.TempDir()
	if _, err := run(t, dataDir, "mine"); err != nil {
		t.Fatalf("mine: %v", err)
	}

	out, err := run(t, dataDir, "cache", "list", "--json")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("cache list output: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0]["source"] != "samples" {
		t.Errorf("entries = %v", entries)
	}

	out, err = run(t, dataDir, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if strings.TrimSpace(out) != "Removed 1 cache entries" {
		t.Errorf("output = %q", out)
	}
}

func TestCache_Disabled(t *testing.T) {
	_, err := run(t, t.TempDir(), "cache", "clear", "--no-cache")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("err = %v, want cache disabled", err)
	}
}

func TestInspect_SuccessWritesTrajectory(t *testing.T) {
	outDir := t.TempDir()
	out, err := runWithCommand(t, t.TempDir(), []string{"inspect", "-o", outDir}, []string{"echo fine"})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.HasPrefix(out, "Trajectory saved to "+outDir) {
		t.Errorf("output = %q", out)
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "trajectory_*.json"))
	if len(matches) != 1 {
		t.Fatalf("trajectories = %v", matches)
	}
	var traj struct {
		Command string           `json:"command"`
		Steps   []map[string]any `json:"steps"`
	}
	data, _ := os.ReadFile(matches[0])
	if err := json.Unmarshal(data, &traj); err != nil {
		t.Fatalf("trajectory: %v", err)
	}
	if traj.Command != "echo fine" || len(traj.Steps) != 1 {
		t.Errorf("trajectory = %+v", traj)
	}
}

func TestInspect_FailurePropagatesExitCode(t *testing.T) {
	outDir := t.TempDir()
	_, err := runWithCommand(t, t.TempDir(), []string{"inspect", "-o", outDir}, []string{"sh", "-c", "exit 4"})
	var exit *exitCodeError
	if !errors.As(err, &exit) || exit.code != 4 {
		t.Fatalf("err = %v, want exit code 4", err)
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "trajectory_*.json"))
	if len(matches) != 1 {
		t.Fatalf("trajectories = %v", matches)
	}
	var traj struct {
		Steps []struct {
			Type   string `json:"type"`
			Result *struct {
				Status string `json:"status"`
			} `json:"result"`
		} `json:"steps"`
	}
	data, _ := os.ReadFile(matches[0])
	if err := json.Unmarshal(data, &traj); err != nil {
		t.Fatalf("trajectory: %v", err)
	}
	if len(traj.Steps) != 2 || traj.Steps[1].Type != "minecontext_context" || traj.Steps[1].Result == nil {
		t.Fatalf("steps = %+v", traj.Steps)
	}
	if traj.Steps[1].Result.Status != "error" {
		t.Errorf("context status = %q, want error for an unreachable MineContext", traj.Steps[1].Result.Status)
	}
}

func TestInspect_RequiresCommand(t *testing.T) {
	if _, err := run(t, t.TempDir(), "inspect"); err == nil {
		t.Error("expected an argument error")
	}
}

func TestExitStatus(t *testing.T) {
	for code, want := range map[int]int{4: 4, -1: 1, 300: 1, 255: 255} {
		if got := exitStatus(code); got != want {
			t.Errorf("exitStatus(%d) = %d, want %d", code, got, want)
		}
	}
}
