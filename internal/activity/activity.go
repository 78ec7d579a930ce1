// Package activity defines the activity record consumed by the behavior miner.
//
// Activities come from the MineContext debug API, the local cache or the
// bundled sample file. None of those sources validate their payloads, so every
// field is optional: decoding never fails on a single malformed field and the
// accessors below are total (they return a neutral default instead of erroring).
package activity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Resource is an attachment referenced by an activity.
// Entries with Type "image" are screenshot references.
type Resource struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Activity is one timestamped, free-text user action record.
type Activity struct {
	ID        string          `json:"id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Content   string          `json:"content,omitempty"`
	StartTime string          `json:"start_time,omitempty"`
	EndTime   string          `json:"end_time,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Resources []Resource      `json:"resources,omitempty"`
}

// OccurredAt returns the start time, falling back to the end time.
func (a Activity) OccurredAt() string {
	if a.StartTime != "" {
		return a.StartTime
	}
	return a.EndTime
}

// LatestAt returns the end time, falling back to the start time.
func (a Activity) LatestAt() string {
	if a.EndTime != "" {
		return a.EndTime
	}
	return a.StartTime
}

// FocusAreas returns metadata.extracted_insights.focus_areas, falling back to
// metadata.focus_areas.
func (a Activity) FocusAreas() []string {
	meta := a.metadata()
	if meta == nil {
		return nil
	}
	if insights, ok := meta["extracted_insights"].(map[string]any); ok {
		if areas := stringList(insights["focus_areas"]); len(areas) > 0 {
			return areas
		}
	}
	return stringList(meta["focus_areas"])
}

// KeyEntities returns metadata.extracted_insights.key_entities.
func (a Activity) KeyEntities() []string {
	meta := a.metadata()
	if meta == nil {
		return nil
	}
	insights, ok := meta["extracted_insights"].(map[string]any)
	if !ok {
		return nil
	}
	return stringList(insights["key_entities"])
}

// ScreenshotPaths returns the paths of all image resources.
func (a Activity) ScreenshotPaths() []string {
	var paths []string
	for _, r := range a.Resources {
		if r.Type == "image" && r.Path != "" {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// metadata decodes the metadata blob. MineContext stores it either as a JSON
// object or as a JSON-encoded string holding an object.
func (a Activity) metadata() map[string]any {
	raw := bytes.TrimSpace(a.Metadata)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		raw = []byte(s)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// UnmarshalJSON decodes an activity leniently. Fields with an unexpected type
// are left empty instead of failing the whole record.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object at all: treat as an empty record.
		*a = Activity{}
		return nil
	}

	*a = Activity{
		ID:        scalarString(raw["id"]),
		Title:     scalarString(raw["title"]),
		Content:   scalarString(raw["content"]),
		StartTime: scalarString(raw["start_time"]),
		EndTime:   scalarString(raw["end_time"]),
	}
	if m, ok := raw["metadata"]; ok && !bytes.Equal(bytes.TrimSpace(m), []byte("null")) {
		a.Metadata = append(json.RawMessage(nil), m...)
	}
	a.Resources = decodeResources(raw["resources"])
	return nil
}

// FromRaw decodes raw records, skipping anything that is not a JSON object.
func FromRaw(items []json.RawMessage) []Activity {
	out := make([]Activity, 0, len(items))
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var act Activity
		_ = act.UnmarshalJSON(trimmed) // lenient, never fails
		out = append(out, act)
	}
	return out
}

func decodeResources(raw json.RawMessage) []Resource {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []Resource
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		out = append(out, Resource{
			Type: scalarString(fields["type"]),
			Path: scalarString(fields["path"]),
		})
	}
	return out
}

// scalarString renders a JSON string, number or bool as a Go string.
// Anything else (null, objects, arrays, garbage) becomes "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return ""
		}
		return strconv.FormatBool(b)
	case 'n', '{', '[':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
