package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Narrative identifies one catalogued claim pattern. The extraction model
// may answer with catalog ids or short labels, so both unmarshal into the
// same string form.
type Narrative string

func (n *Narrative) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = Narrative(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*n = Narrative(num.String())
		return nil
	}
	return fmt.Errorf("narrative must be a string or number, got %s", b)
}

// NarrativeEntry is one row of the static narrative catalog.
type NarrativeEntry struct {
	ID      int    `json:"id"`
	Label   string `json:"label"`
	Summary string `json:"summary"`
}

// LoadCatalog reads the narrative catalog from its JSON document. Loaded
// once at classifier construction and held immutable after that.
func LoadCatalog(path string) ([]NarrativeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load narrative catalog: %w", err)
	}
	var entries []NarrativeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("load narrative catalog %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("narrative catalog %s is empty", path)
	}
	return entries, nil
}

// renderCatalog formats catalog entries as a numbered reference list for
// the extraction prompt.
func renderCatalog(entries []NarrativeEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s — %s\n", e.ID, e.Label, e.Summary)
	}
	return sb.String()
}
