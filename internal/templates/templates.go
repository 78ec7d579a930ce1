// Package templates renders PRD documents for mined behavior candidates.
//
// Every format is produced from the same Document, which is filled from a
// fixed template: only the identity, frequency, time range and evidence
// sections vary with the candidate.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/miner"
)

//go:embed prd.md.tmpl
var templateFS embed.FS

// Format is an output format for a rendered PRD.
type Format string

// Supported formats.
const (
	JSON     Format = "json"
	Markdown Format = "md"
	YAML     Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{JSON, Markdown, YAML}

// ErrUnknownFormat is returned for formats outside Formats.
var ErrUnknownFormat = errors.New("unknown document format")

// ParseFormat resolves a user-supplied format name. "markdown" and "yml"
// are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return JSON, nil
	case "md", "markdown":
		return Markdown, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string { return string(f) }

// Renderer turns a candidate and its evidence into a PRD.
type Renderer struct {
	markdown *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("prd.md.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "prd.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{markdown: tmpl}, nil
}

// Render fills the PRD template for c and renders it as format.
func (r *Renderer) Render(c miner.Candidate, pack *evidence.Pack, format Format) ([]byte, error) {
	doc := NewDocument(c, pack)
	switch format {
	case JSON:
		return marshalJSON(doc)
	case YAML:
		return toYAML(doc)
	case Markdown:
		var buf bytes.Buffer
		if err := r.markdown.Execute(&buf, doc); err != nil {
			return nil, fmt.Errorf("rendering markdown: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// marshalJSON indents v and leaves characters such as '>' unescaped.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toYAML emits v with the same keys and field order as its JSON encoding.
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// JSON is a subset of YAML, so the node tree keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("converting to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
