// Package export writes behavior candidates to disk as PRD bundles.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/logging"
	"github.com/HendryAvila/mcagent/internal/miner"
	"github.com/HendryAvila/mcagent/internal/templates"
)

// newBundleID is a package-level variable for testability.
var newBundleID = uuid.NewString

const (
	stampLayout  = "20060102_150405"
	maxTitleLen  = 30
	prdSuffix    = "_prd.json"
	specSuffix   = "_spec.json"
	packSuffix   = "_evidence_pack.json"
)

// Bundle describes the files written for one candidate.
type Bundle struct {
	BundleID    string `json:"bundle_id"`
	CandidateID string `json:"candidate_id"`
	PRD         string `json:"prd"`
	Spec        string `json:"spec"`
	Evidence    string `json:"evidence"`
}

// specDoc is the content of the spec file.
type specDoc struct {
	BundleID     string          `json:"bundle_id"`
	Candidate    miner.Candidate `json:"candidate"`
	EvidencePack *evidence.Pack  `json:"evidence_pack"`
	GeneratedAt  string          `json:"generated_at"`
}

// Exporter writes bundles and standalone PRDs.
type Exporter struct {
	renderer *templates.Renderer
	logger   *log.Logger
}

// New returns an Exporter. A nil logger discards output.
func New(renderer *templates.Renderer, logger *log.Logger) *Exporter {
	return &Exporter{renderer: renderer, logger: logging.OrDiscard(logger)}
}

// Export writes the three-piece bundle for c into dir:
// <id>_<title>_<stamp>_prd.json, _spec.json and _evidence_pack.json.
func (e *Exporter) Export(c miner.Candidate, pack *evidence.Pack, dir string) (*Bundle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory %s: %w", dir, err)
	}

	now := timeNow()
	base := filepath.Join(dir, BaseName(c, now.Format(stampLayout)))
	b := &Bundle{
		BundleID:    newBundleID(),
		CandidateID: c.CandidateID,
		PRD:         base + prdSuffix,
		Spec:        base + specSuffix,
		Evidence:    base + packSuffix,
	}

	prd, err := e.renderer.Render(c, pack, templates.JSON)
	if err != nil {
		return nil, fmt.Errorf("rendering prd: %w", err)
	}
	if err := os.WriteFile(b.PRD, prd, 0o644); err != nil {
		return nil, fmt.Errorf("writing prd: %w", err)
	}

	spec := specDoc{
		BundleID:     b.BundleID,
		Candidate:    c,
		EvidencePack: pack,
		GeneratedAt:  now.Format("2006-01-02T15:04:05.000000"),
	}
	if err := writeJSON(b.Spec, spec); err != nil {
		return nil, fmt.Errorf("writing spec: %w", err)
	}
	if err := writeJSON(b.Evidence, pack); err != nil {
		return nil, fmt.Errorf("writing evidence pack: %w", err)
	}

	e.logger.Info("exported bundle", "candidate", c.CandidateID, "bundle", b.BundleID, "dir", dir)
	return b, nil
}

// ExportPRD writes a single PRD_<id>_<title>_<stamp>.<ext> file and returns
// its path.
func (e *Exporter) ExportPRD(c miner.Candidate, pack *evidence.Pack, dir string, format templates.Format) (string, error) {
	out, err := e.renderer.Render(c, pack, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "PRD_"+BaseName(c, timeNow().Format(stampLayout))+"."+format.Ext())
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("writing prd: %w", err)
	}
	e.logger.Info("exported prd", "candidate", c.CandidateID, "path", path)
	return path, nil
}

// BaseName is <candidate id>_<safe title>_<stamp>.
func BaseName(c miner.Candidate, stamp string) string {
	return c.CandidateID + "_" + SafeTitle(c.Title) + "_" + stamp
}

// SafeTitle keeps letters, digits, spaces, '-' and '_', trims trailing
// spaces and caps the result at 30 characters.
func SafeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := []rune(strings.TrimRight(b.String(), " "))
	if len(safe) > maxTitleLen {
		safe = safe[:maxTitleLen]
	}
	return string(safe)
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
