package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// LoadSamples reads a {"activities": [...]} file.
func LoadSamples(path string) ([]activity.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	var doc struct {
		Activities []json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode samples %s: %w", path, err)
	}
	return activity.FromRaw(doc.Activities), nil
}
