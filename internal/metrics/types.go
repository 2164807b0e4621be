package metrics

import (
	"encoding/json"
	"log/slog"
)

// FunctionComplexity is one block record from `radon cc --json`.
type FunctionComplexity struct {
	Type       string               `json:"type,omitempty"`
	Name       string               `json:"name"`
	Classname  string               `json:"classname,omitempty"`
	Complexity int                  `json:"complexity"`
	Rank       string               `json:"rank,omitempty"`
	Lineno     int                  `json:"lineno,omitempty"`
	Endline    int                  `json:"endline,omitempty"`
	ColOffset  int                  `json:"col_offset,omitempty"`
	Closures   []FunctionComplexity `json:"closures,omitempty"`
	Methods    []FunctionComplexity `json:"methods,omitempty"`
}

// Maintainability is one file record from `radon mi --json`.
type Maintainability struct {
	MI   float64 `json:"mi"`
	Rank string  `json:"rank,omitempty"`
}

// Set holds per-file complexity and maintainability for one measurement.
type Set struct {
	CC map[string][]FunctionComplexity `json:"cc"`
	MI map[string]Maintainability      `json:"mi"`
}

// UnmarshalJSON decodes a stored set file by file. Entries that do not hold a
// measurement, such as radon's {"error": ...} records, are dropped so the
// rest of the set stays usable.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw struct {
		CC map[string]json.RawMessage `json:"cc"`
		MI map[string]json.RawMessage `json:"mi"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cc, ccSkipped := complexityEntries(raw.CC)
	mi, miSkipped := maintainabilityEntries(raw.MI)
	for _, d := range append(prefixAll("cc ", ccSkipped), prefixAll("mi ", miSkipped)...) {
		slog.Debug("stored metrics entry skipped", "detail", d)
	}

	*s = Set{CC: cc, MI: mi}
	return nil
}

func NewSet() Set {
	return Set{
		CC: make(map[string][]FunctionComplexity),
		MI: make(map[string]Maintainability),
	}
}

// Maintainability reports the file's MI and whether it was measured.
func (s Set) Maintainability(file string) (float64, bool) {
	m, ok := s.MI[file]
	if !ok {
		return 0, false
	}
	return m.MI, true
}

// AverageComplexity is the mean complexity of the file's blocks, 0 if none.
func (s Set) AverageComplexity(file string) float64 {
	blocks := s.CC[file]
	if len(blocks) == 0 {
		return 0
	}

	total := 0
	for _, block := range blocks {
		total += block.Complexity
	}

	return float64(total) / float64(len(blocks))
}

func (s *Set) merge(other Set) {
	for file, blocks := range other.CC {
		s.CC[file] = blocks
	}
	for file, mi := range other.MI {
		s.MI[file] = mi
	}
}
