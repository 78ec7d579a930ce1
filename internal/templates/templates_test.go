package templates

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/miner"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

func pinClock(t *testing.T) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2025, 12, 30, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })
}

func strPtr(s string) *string { return &s }

func sampleCandidate() miner.Candidate {
	return miner.Candidate{
		CandidateID: "candidate_0",
		Title:       "Weekly report",
		Freq:        4,
		TimeRange: miner.TimeRange{
			Start:        strPtr("2025-12-25T09:00:00"),
			End:          strPtr("2025-12-29T12:00:00"),
			DurationDays: 5,
		},
		SampleActivityIDs: []string{"a1", "a2", "a3", "a4"},
	}
}

func samplePack() *evidence.Pack {
	return &evidence.Pack{
		CandidateID:     "candidate_0",
		CandidateTitle:  "Weekly report",
		EvidenceSummary: evidence.Summary{TotalActivities: 4, GeneratedExamples: 1},
		Examples: []evidence.Example{
			{OccurredAt: "2025-12-25T09:00:00", SourceRef: "a1", Excerpt: "Drafted the weekly report"},
		},
		Uncertainty: evidence.Uncertainty{
			WhatWeCannotProve: []string{"Whether the user wants automation"},
			ConfidenceLevel:   "high",
			Limitations:       []string{"Small sample"},
		},
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

// ─── NewDocument ─────────────────────────────────────────────────────────────

func TestNewDocument_FillsCandidateFields(t *testing.T) {
	pinClock(t)
	doc := NewDocument(sampleCandidate(), samplePack())

	if doc.FeatureSpecification.FeatureID != "candidate_0" {
		t.Errorf("feature id = %q", doc.FeatureSpecification.FeatureID)
	}
	if doc.ProductOverview.ProductName != "Weekly report" {
		t.Errorf("product name = %q", doc.ProductOverview.ProductName)
	}
	if doc.EvidenceSummary.TotalOccurrences != "4" {
		t.Errorf("occurrences = %q", doc.EvidenceSummary.TotalOccurrences)
	}
	if want := "2025-12-25T09:00:00 ~ 2025-12-29T12:00:00"; doc.EvidenceSummary.TimeRange != want {
		t.Errorf("time range = %q, want %q", doc.EvidenceSummary.TimeRange, want)
	}
	if doc.EvidenceSummary.EvidenceQuality != "high" {
		t.Errorf("quality = %q", doc.EvidenceSummary.EvidenceQuality)
	}
	if doc.DocumentMeta.GeneratedAt != "2025-12-30T08:00:00.000000" {
		t.Errorf("generated at = %q", doc.DocumentMeta.GeneratedAt)
	}
}

func TestNewDocument_NilPackAndOpenRange(t *testing.T) {
	c := sampleCandidate()
	c.TimeRange = miner.TimeRange{}
	doc := NewDocument(c, nil)

	if doc.EvidenceSummary.EvidenceQuality != "medium" {
		t.Errorf("quality = %q, want medium", doc.EvidenceSummary.EvidenceQuality)
	}
	if doc.EvidenceSummary.TimeRange != "N/A ~ N/A" {
		t.Errorf("time range = %q", doc.EvidenceSummary.TimeRange)
	}
	if doc.Appendices.EvidencePack != nil {
		t.Error("evidence pack should stay nil")
	}
}

// ─── Render ──────────────────────────────────────────────────────────────────

func TestRender_JSON(t *testing.T) {
	out, err := newTestRenderer(t).Render(sampleCandidate(), samplePack(), JSON)
	if err != nil {
		t.Fatalf("Render(JSON): %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{
		"document_meta", "product_overview", "feature_specification", "user_stories",
		"functional_requirements", "technical_requirements", "evidence_summary",
		"constraints_and_assumptions", "risk_analysis", "success_metrics", "appendices",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing section %q", key)
		}
	}
	pack := m["appendices"].(map[string]any)["evidence_pack"].(map[string]any)
	if pack["candidate_id"] != "candidate_0" {
		t.Errorf("embedded pack = %v", pack)
	}
}

func TestRender_Markdown(t *testing.T) {
	out, err := newTestRenderer(t).Render(sampleCandidate(), samplePack(), Markdown)
	if err != nil {
		t.Fatalf("Render(Markdown): %v", err)
	}
	text := string(out)
	checks := []string{
		"# PRD: Weekly report",
		"`candidate_0`",
		"Workflow Automation, Behavior Mining",
		"### US-001",
		"- [ ] Similar tasks are detected automatically",
		"**FR-002** (P0)",
		"- **Occurrences:** 4",
		"`2025-12-25T09:00:00` [a1] Drafted the weekly report",
		"- Whether the user wants automation",
		"| MineContext API unavailable | high |",
	}
	for _, check := range checks {
		if !strings.Contains(text, check) {
			t.Errorf("markdown missing %q", check)
		}
	}
}

func TestRender_MarkdownWithoutPack(t *testing.T) {
	out, err := newTestRenderer(t).Render(sampleCandidate(), nil, Markdown)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "### Examples") {
		t.Error("examples section should be omitted without a pack")
	}
}

func TestRender_YAML(t *testing.T) {
	out, err := newTestRenderer(t).Render(sampleCandidate(), samplePack(), YAML)
	if err != nil {
		t.Fatalf("Render(YAML): %v", err)
	}
	text := string(out)
	if strings.Contains(text, "{") {
		t.Errorf("yaml should use block style:\n%s", text)
	}
	if strings.Index(text, "document_meta:") > strings.Index(text, "appendices:") {
		t.Error("yaml should keep document field order")
	}

	var m map[string]any
	if err := yaml.Unmarshal(out, &m); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	meta := m["document_meta"].(map[string]any)
	if meta["version"] != "1.0" {
		t.Errorf("version = %#v, want string 1.0", meta["version"])
	}
	summary := m["evidence_summary"].(map[string]any)
	if summary["total_occurrences"] != "4" {
		t.Errorf("total_occurrences = %#v, want string 4", summary["total_occurrences"])
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := newTestRenderer(t).Render(sampleCandidate(), nil, Format("pdf"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

// ─── ParseFormat ─────────────────────────────────────────────────────────────

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", JSON},
		{"", JSON},
		{"MD", Markdown},
		{"markdown", Markdown},
		{"yml", YAML},
		{" yaml ", YAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(docx) err = %v", err)
	}
}
