// Package algobytes defines the core puzzle types and the pure rules shared by
// the server and the board: grading a submission and advancing a streak.
// It has no external dependencies.
package algobytes

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GameTypeCodeAssembler is the only puzzle kind served today.
const GameTypeCodeAssembler = "code_assembler"

// DateLayout is the calendar-date format used for daily dates and last-played.
const DateLayout = "2006-01-02"

type Challenge struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Difficulty        Difficulty    `json:"difficulty"`
	AlgorithmCategory string        `json:"algorithm_category"`
	GameType          string        `json:"game_type"`
	IsDaily           bool          `json:"is_daily"`
	DailyDate         *string       `json:"daily_date"`
	Data              ChallengeData `json:"challenge_data"`
	CreatedAt         time.Time     `json:"created_at"`
}

// ChallengeSummary is the catalogue view of a practice challenge.
type ChallengeSummary struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Difficulty        Difficulty `json:"difficulty"`
	AlgorithmCategory string     `json:"algorithm_category"`
}

type CodeBlock struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	CorrectPosition *int   `json:"correct_position,omitempty"`
	Indentation     int    `json:"indentation"`
	IsBoilerplate   bool   `json:"is_boilerplate,omitempty"`
}

// Position reports the block's canonical slot, if it has one.
func (b CodeBlock) Position() (int, bool) {
	if b.CorrectPosition == nil {
		return 0, false
	}
	return *b.CorrectPosition, true
}

// Pos is a convenience for building blocks in code and tests.
func Pos(i int) *int { return &i }

type Progress struct {
	UserID         string     `json:"user_id"`
	ChallengeID    string     `json:"challenge_id"`
	Completed      bool       `json:"completed"`
	TimeTaken      *int       `json:"time_taken"`
	CompletedAt    *time.Time `json:"completed_at"`
	UnlockedAt     *time.Time `json:"unlocked_at"`
	AttemptHistory []string   `json:"attempt_history"`
}

type Profile struct {
	UserID              string   `json:"user_id"`
	Username            string   `json:"username"`
	StreakCount         int      `json:"streak_count"`
	LastPlayedDate      *string  `json:"last_played_date"`
	PracticeCredits     int      `json:"practice_credits"`
	CompletedChallenges []string `json:"completed_challenges"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// PracticeStatus is the per-user availability of a practice challenge.
type PracticeStatus string

const (
	StatusLocked    PracticeStatus = "locked"
	StatusAvailable PracticeStatus = "available"
	StatusCompleted PracticeStatus = "completed"
)

// StatusOf derives the practice status from an optional progress row.
func StatusOf(p *Progress) PracticeStatus {
	switch {
	case p == nil:
		return StatusLocked
	case p.Completed:
		return StatusCompleted
	default:
		return StatusAvailable
	}
}

// Submission is what a board sends for validation.
type Submission struct {
	Solution       []string `json:"solution"`
	TimeTaken      *int     `json:"time_taken,omitempty"`
	AttemptHistory []string `json:"attempt_history,omitempty"`
}

// Verdict is the validator's answer to a Submission.
type Verdict struct {
	Correct         bool   `json:"correct"`
	Results         []bool `json:"results"`
	EmojiGrid       string `json:"emoji_grid"`
	Message         string `json:"message"`
	NewStreak       *int   `json:"new_streak,omitempty"`
	IsNewCompletion *bool  `json:"is_new_completion,omitempty"`
}
