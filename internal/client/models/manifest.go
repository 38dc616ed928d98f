package models

import (
	"encoding/json"
	"fmt"
)

// ManifestVersion is written into every archive this build produces.
const ManifestVersion = "1.0.0"

// BackupManifest is the JSON document at the heart of a backup archive.
// Version and the four record arrays are required on import; taskLogs
// defaults to empty when absent. Config blobs are optional.
type BackupManifest struct {
	Version    string         `json:"version"`
	ExportDate string         `json:"exportDate,omitempty"`
	Plants     []Plant        `json:"plants"`
	Tasks      []TaskTemplate `json:"tasks"`
	TaskLogs   []TaskLog      `json:"taskLogs"`
	Journal    []JournalEntry `json:"journal"`

	Locations         *LocationConfig    `json:"locations,omitempty"`
	PlantCatalog      *PlantCatalog      `json:"plantCatalog,omitempty"`
	PlantCareProfiles *PlantCareProfiles `json:"plantCareProfiles,omitempty"`
}

// ValidateManifest performs the structural validation gate for imports:
// required fields present and well-typed, per-record required fields present.
// Any failure rejects the whole import.
func ValidateManifest(raw []byte) (*BackupManifest, error) {
	// First pass: required keys must exist and be of the right JSON type.
	var shape struct {
		Version  *string          `json:"version"`
		Plants   *json.RawMessage `json:"plants"`
		Tasks    *json.RawMessage `json:"tasks"`
		TaskLogs *json.RawMessage `json:"taskLogs"`
		Journal  *json.RawMessage `json:"journal"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("manifest is not valid JSON: %w", err)
	}
	if shape.Version == nil || *shape.Version == "" {
		return nil, fmt.Errorf("manifest missing required field %q", "version")
	}
	for name, f := range map[string]*json.RawMessage{
		"plants": shape.Plants, "tasks": shape.Tasks, "journal": shape.Journal,
	} {
		if f == nil {
			return nil, fmt.Errorf("manifest missing required array %q", name)
		}
	}

	var m BackupManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("manifest has malformed fields: %w", err)
	}
	if m.TaskLogs == nil {
		m.TaskLogs = []TaskLog{}
	}

	for i, p := range m.Plants {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("plants[%d] missing id or name", i)
		}
	}
	for i, t := range m.Tasks {
		if t.ID == "" || t.PlantID == "" || t.Type == "" {
			return nil, fmt.Errorf("tasks[%d] missing id, plantId or type", i)
		}
	}
	for i, l := range m.TaskLogs {
		if l.ID == "" || l.TaskID == "" {
			return nil, fmt.Errorf("taskLogs[%d] missing id or taskId", i)
		}
	}
	for i, j := range m.Journal {
		if j.ID == "" || j.Date == "" {
			return nil, fmt.Errorf("journal[%d] missing id or date", i)
		}
	}

	return &m, nil
}

// PhotoFilenames lists every photo filename referenced anywhere in the
// manifest, de-duplicated, in first-reference order.
func (m *BackupManifest) PhotoFilenames() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, p := range m.Plants {
		add(p.PhotoFilenames)
	}
	for _, j := range m.Journal {
		add(j.PhotoFilenames)
	}
	return out
}
