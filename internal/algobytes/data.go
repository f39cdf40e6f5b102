package algobytes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchemaVersion is the current challenge_data layout. Payloads without a
// version field are treated as version 1.
const SchemaVersion = 1

type ChallengeData struct {
	Version          int          `json:"version"`
	ProblemStatement string       `json:"problem_statement,omitempty"`
	InputExample     Examples     `json:"input_example"`
	OutputExample    Examples     `json:"output_example"`
	Constraints      []string     `json:"constraints,omitempty"`
	Hints            []string     `json:"hints"`
	VisualInput      *VisualInput `json:"visual_input,omitempty"`
	TotalSlots       int          `json:"total_slots"`
	CodeBlocks       []CodeBlock  `json:"code_blocks"`
	DecoyBlocks      []CodeBlock  `json:"decoy_blocks"`
}

type VisualInput struct {
	Type   string            `json:"type"`
	Values []json.RawMessage `json:"values"`
}

// Examples accepts either a single string or a list of strings and always
// holds a list.
type Examples []string

func (e *Examples) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*e = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Examples{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("example must be a string or a list of strings: %w", err)
	}
	*e = list
	return nil
}

// ParseChallengeData decodes and validates a stored or submitted payload.
func ParseChallengeData(raw []byte) (ChallengeData, error) {
	var d ChallengeData
	if err := json.Unmarshal(raw, &d); err != nil {
		return ChallengeData{}, invalidf("decoding challenge_data: %v", err)
	}
	if err := d.Validate(); err != nil {
		return ChallengeData{}, err
	}
	return d, nil
}

// Validate checks the structural invariants of a puzzle definition and fills
// in the default schema version.
func (d *ChallengeData) Validate() error {
	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	if d.Version != SchemaVersion {
		return invalidf("unsupported challenge_data version %d", d.Version)
	}
	if d.TotalSlots <= 0 {
		return invalidf("total_slots must be positive, got %d", d.TotalSlots)
	}

	ids := make(map[string]bool, len(d.CodeBlocks)+len(d.DecoyBlocks))
	claimed := make([]string, d.TotalSlots)

	for _, b := range d.CodeBlocks {
		if err := checkBlock(b, ids); err != nil {
			return err
		}
		pos, ok := b.Position()
		if !ok {
			if b.IsBoilerplate {
				return invalidf("boilerplate block %q has no correct_position", b.ID)
			}
			continue
		}
		if pos < 0 || pos >= d.TotalSlots {
			return invalidf("block %q position %d outside [0, %d)", b.ID, pos, d.TotalSlots)
		}
		if claimed[pos] != "" {
			return invalidf("position %d claimed by both %q and %q", pos, claimed[pos], b.ID)
		}
		claimed[pos] = b.ID
	}
	for i, id := range claimed {
		if id == "" {
			return invalidf("position %d has no canonical block", i)
		}
	}

	for _, b := range d.DecoyBlocks {
		if err := checkBlock(b, ids); err != nil {
			return err
		}
		if b.CorrectPosition != nil {
			return invalidf("decoy block %q must not have a correct_position", b.ID)
		}
		if b.IsBoilerplate {
			return invalidf("decoy block %q cannot be boilerplate", b.ID)
		}
	}

	if len(d.OutputExample) > 0 && len(d.InputExample) != len(d.OutputExample) {
		return invalidf("%d input examples but %d output examples", len(d.InputExample), len(d.OutputExample))
	}
	return nil
}

func checkBlock(b CodeBlock, seen map[string]bool) error {
	if b.ID == "" {
		return invalidf("code block with empty id")
	}
	if seen[b.ID] {
		return invalidf("duplicate block id %q", b.ID)
	}
	seen[b.ID] = true
	if b.Indentation < 0 {
		return invalidf("block %q has negative indentation", b.ID)
	}
	return nil
}

// Canonical returns the block id expected at each slot.
func (d ChallengeData) Canonical() []string {
	out := make([]string, d.TotalSlots)
	for _, b := range d.CodeBlocks {
		if pos, ok := b.Position(); ok && pos >= 0 && pos < d.TotalSlots {
			out[pos] = b.ID
		}
	}
	return out
}

// SlotIndentation returns, per slot, the indentation of the block whose
// canonical position is that slot.
func (d ChallengeData) SlotIndentation() []int {
	out := make([]int, d.TotalSlots)
	for _, b := range d.CodeBlocks {
		if pos, ok := b.Position(); ok && pos >= 0 && pos < d.TotalSlots {
			out[pos] = b.Indentation
		}
	}
	return out
}
