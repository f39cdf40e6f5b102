package algobytes

import (
	"strings"
	"unicode/utf8"
)

const (
	GlyphPass = "🟩"
	GlyphFail = "🟥"

	// MaxAttemptHistory caps the lines accepted from a client per completion.
	MaxAttemptHistory = 50
)

const (
	MessageCorrect   = "Challenge Completed!"
	MessageIncorrect = "Some blocks are incorrect."
)

// Grade is the outcome of comparing a solution with the canonical layout.
type Grade struct {
	Results    []bool
	AllCorrect bool
	EmojiLine  string
}

// GradeSolution compares solution slot by slot against the canonical block
// ids. The solution length must equal total_slots.
func GradeSolution(d ChallengeData, solution []string) (Grade, error) {
	if len(solution) != d.TotalSlots {
		return Grade{}, invalidf("Solution length (%d) does not match required slots (%d)", len(solution), d.TotalSlots)
	}

	canonical := d.Canonical()
	g := Grade{
		Results:    make([]bool, d.TotalSlots),
		AllCorrect: true,
	}
	var line strings.Builder
	for i, want := range canonical {
		ok := want != "" && solution[i] == want
		g.Results[i] = ok
		if ok {
			line.WriteString(GlyphPass)
		} else {
			g.AllCorrect = false
			line.WriteString(GlyphFail)
		}
	}
	g.EmojiLine = line.String()
	return g, nil
}

// EmojiLine renders per-slot results the same way GradeSolution does.
func EmojiLine(results []bool) string {
	var b strings.Builder
	for _, ok := range results {
		if ok {
			b.WriteString(GlyphPass)
		} else {
			b.WriteString(GlyphFail)
		}
	}
	return b.String()
}

// SanitizeHistory keeps only well-formed emoji lines of exactly slots glyphs,
// at most MaxAttemptHistory of them.
func SanitizeHistory(lines []string, slots int) []string {
	var out []string
	for _, l := range lines {
		if len(out) == MaxAttemptHistory {
			break
		}
		if isEmojiLine(l, slots) {
			out = append(out, l)
		}
	}
	return out
}

func isEmojiLine(s string, slots int) bool {
	if utf8.RuneCountInString(s) != slots {
		return false
	}
	for _, r := range s {
		if string(r) != GlyphPass && string(r) != GlyphFail {
			return false
		}
	}
	return true
}
