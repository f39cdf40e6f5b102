package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/algobytes/assembler/internal/algobytes"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteStore implements Store on the schema in internal/migrations.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type StoreOption func(*SQLiteStore)

// WithStoreClock sets the clock used for completed_at and unlocked_at.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *SQLiteStore) { s.now = now }
}

func NewSQLiteStore(db *sql.DB, opts ...StoreOption) *SQLiteStore {
	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLiteStore) nowUTC() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t := parseTime(v.String)
	return &t
}

// nullDate scans a calendar-date column. libsql may hand TEXT dates back as
// time.Time, so every form is normalised to algobytes.DateLayout.
type nullDate struct {
	Date  string
	Valid bool
}

func (d *nullDate) Scan(v any) error {
	d.Date, d.Valid = "", false
	switch v := v.(type) {
	case nil:
		return nil
	case time.Time:
		d.Date = v.UTC().Format(algobytes.DateLayout)
	case string:
		d.Date = normaliseDate(v)
	case []byte:
		d.Date = normaliseDate(string(v))
	default:
		return fmt.Errorf("scanning date: unsupported type %T", v)
	}
	d.Valid = d.Date != ""
	return nil
}

func (d nullDate) ptr() *string {
	if !d.Valid {
		return nil
	}
	s := d.Date
	return &s
}

func normaliseDate(v string) string {
	if _, err := time.Parse(algobytes.DateLayout, v); err == nil {
		return v
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC().Format(algobytes.DateLayout)
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// inTx runs fn inside a transaction and commits when it returns nil.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, u NewUser) (algobytes.User, error) {
	user := algobytes.User{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(strings.TrimSpace(u.Email)),
		Username: u.Username,
	}
	created := s.nowUTC()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, user.Email).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return algobytes.ErrEmailTaken
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, email, username, password_hash, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, user.ID, user.Email, user.Username, u.PasswordHash, created)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				return algobytes.ErrEmailTaken
			}
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (user_id, username, practice_credits)
			VALUES (?, ?, ?)
		`, user.ID, user.Username, u.Credits)
		return err
	})
	if err != nil {
		if errors.Is(err, algobytes.ErrEmailTaken) {
			return algobytes.User{}, err
		}
		return algobytes.User{}, fmt.Errorf("creating user: %w", err)
	}
	user.CreatedAt = parseTime(created)
	return user, nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (algobytes.User, string, error) {
	var (
		u       algobytes.User
		hash    string
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, password_hash, created_at
		FROM users WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &u.Username, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return u, "", algobytes.ErrNotFound
	}
	if err != nil {
		return u, "", fmt.Errorf("loading user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, hash, nil
}

func (s *SQLiteStore) User(ctx context.Context, id string) (algobytes.User, error) {
	var (
		u       algobytes.User
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.Username, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return u, algobytes.ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("loading user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (algobytes.Profile, error) {
	var (
		p         algobytes.Profile
		last      nullDate
		completed string
	)
	if err := row.Scan(&p.UserID, &p.Username, &p.StreakCount, &last, &p.PracticeCredits, &completed); err != nil {
		return p, err
	}
	p.LastPlayedDate = last.ptr()
	if err := json.Unmarshal([]byte(completed), &p.CompletedChallenges); err != nil {
		return p, fmt.Errorf("decoding completed challenges: %w", err)
	}
	if p.CompletedChallenges == nil {
		p.CompletedChallenges = []string{}
	}
	return p, nil
}

const profileColumns = `user_id, username, streak_count, last_played_date, practice_credits, completed_challenges`

func (s *SQLiteStore) Profile(ctx context.Context, userID string) (algobytes.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, algobytes.ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

// Challenges

const challengeColumns = `id, title, description, difficulty, algorithm_category, game_type, is_daily, daily_date, data, created_at`

func scanChallenge(row rowScanner) (algobytes.Challenge, error) {
	var (
		c       algobytes.Challenge
		isDaily int
		date    nullDate
		data    string
		created string
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Difficulty, &c.AlgorithmCategory,
		&c.GameType, &isDaily, &date, &data, &created)
	if err != nil {
		return c, err
	}
	c.IsDaily = isDaily != 0
	c.DailyDate = date.ptr()
	c.CreatedAt = parseTime(created)

	d, err := algobytes.ParseChallengeData([]byte(data))
	if err != nil {
		return c, fmt.Errorf("challenge %s: %w", c.ID, err)
	}
	c.Data = d
	return c, nil
}

func (s *SQLiteStore) Challenge(ctx context.Context, id string) (algobytes.Challenge, error) {
	c, err := scanChallenge(s.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, algobytes.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("loading challenge: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) DailyChallenge(ctx context.Context, date string) (algobytes.Challenge, error) {
	c, err := scanChallenge(s.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE is_daily = 1 AND daily_date = ?`, date))
	if errors.Is(err, sql.ErrNoRows) {
		return c, algobytes.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("loading daily challenge: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) PracticeChallenges(ctx context.Context) ([]algobytes.ChallengeSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, difficulty, algorithm_category
		FROM challenges
		WHERE is_daily = 0
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	defer rows.Close()

	list := []algobytes.ChallengeSummary{}
	for rows.Next() {
		var c algobytes.ChallengeSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.Difficulty, &c.AlgorithmCategory); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// PutChallenge validates and upserts c.
func (s *SQLiteStore) PutChallenge(ctx context.Context, c algobytes.Challenge) error {
	if !c.Difficulty.Valid() {
		return &algobytes.ValidationError{Msg: fmt.Sprintf("challenge %s: unknown difficulty %q", c.ID, c.Difficulty)}
	}
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("challenge %s: %w", c.ID, err)
	}
	if c.GameType == "" {
		c.GameType = algobytes.GameTypeCodeAssembler
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	data, err := json.Marshal(c.Data)
	if err != nil {
		return err
	}

	var date any
	if c.IsDaily && c.DailyDate != nil {
		date = *c.DailyDate
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO challenges (`+challengeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			difficulty = excluded.difficulty,
			algorithm_category = excluded.algorithm_category,
			game_type = excluded.game_type,
			is_daily = excluded.is_daily,
			daily_date = excluded.daily_date,
			data = excluded.data
	`, c.ID, c.Title, c.Description, string(c.Difficulty), c.AlgorithmCategory, c.GameType,
		boolInt(c.IsDaily), date, string(data), c.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving challenge %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) CountChallenges(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenges`).Scan(&n)
	return n, err
}

// Progress

const progressColumns = `user_id, challenge_id, completed, time_taken, completed_at, unlocked_at, attempt_history`

func scanProgress(row rowScanner) (algobytes.Progress, error) {
	var (
		p           algobytes.Progress
		completed   int
		timeTaken   sql.NullInt64
		completedAt sql.NullString
		unlockedAt  sql.NullString
		history     string
	)
	err := row.Scan(&p.UserID, &p.ChallengeID, &completed, &timeTaken, &completedAt, &unlockedAt, &history)
	if err != nil {
		return p, err
	}
	p.Completed = completed != 0
	if timeTaken.Valid {
		v := int(timeTaken.Int64)
		p.TimeTaken = &v
	}
	p.CompletedAt = nullTime(completedAt)
	p.UnlockedAt = nullTime(unlockedAt)
	if err := json.Unmarshal([]byte(history), &p.AttemptHistory); err != nil {
		return p, fmt.Errorf("decoding attempt history: %w", err)
	}
	if p.AttemptHistory == nil {
		p.AttemptHistory = []string{}
	}
	return p, nil
}

func (s *SQLiteStore) Progress(ctx context.Context, userID, challengeID string) (*algobytes.Progress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? AND challenge_id = ?`,
		userID, challengeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) ProgressByUser(ctx context.Context, userID string) (map[string]algobytes.Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string]algobytes.Progress)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out[p.ChallengeID] = p
	}
	return out, rows.Err()
}

// Atomic procedures

// UnlockChallenge charges cost credits and creates the progress row. A
// challenge that already has a row is returned as is, free of charge.
func (s *SQLiteStore) UnlockChallenge(ctx context.Context, userID, challengeID string, cost int) (int, error) {
	var remaining int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT practice_credits FROM profiles WHERE user_id = ?`, userID).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return algobytes.ErrNotFound
		}
		if err != nil {
			return err
		}

		var isDaily int
		err = tx.QueryRowContext(ctx,
			`SELECT is_daily FROM challenges WHERE id = ?`, challengeID).Scan(&isDaily)
		if errors.Is(err, sql.ErrNoRows) {
			return algobytes.ErrNotFound
		}
		if err != nil {
			return err
		}
		if isDaily != 0 {
			return algobytes.ErrNotUnlockable
		}

		var rows int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND challenge_id = ?`,
			userID, challengeID).Scan(&rows)
		if err != nil {
			return err
		}
		if rows > 0 {
			return nil
		}

		if remaining < cost {
			return algobytes.ErrInsufficientCredits
		}
		remaining -= cost

		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET practice_credits = ? WHERE user_id = ?`, remaining, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_progress (user_id, challenge_id, completed, unlocked_at)
			VALUES (?, ?, 0, ?)
		`, userID, challengeID, s.nowUTC())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("unlocking challenge: %w", err)
	}
	return remaining, nil
}

// CompleteChallenge records a correct submission. Only the first completion
// touches the profile; later ones report the current streak.
func (s *SQLiteStore) CompleteChallenge(ctx context.Context, c Completion) (CompletionResult, error) {
	var res CompletionResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := scanProfile(tx.QueryRowContext(ctx,
			`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, c.UserID))
		if errors.Is(err, sql.ErrNoRows) {
			return algobytes.ErrNotFound
		}
		if err != nil {
			return err
		}

		var isDaily int
		err = tx.QueryRowContext(ctx,
			`SELECT is_daily FROM challenges WHERE id = ?`, c.ChallengeID).Scan(&isDaily)
		if errors.Is(err, sql.ErrNoRows) {
			return algobytes.ErrNotFound
		}
		if err != nil {
			return err
		}

		prog, err := scanProgress(tx.QueryRowContext(ctx,
			`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? AND challenge_id = ?`,
			c.UserID, c.ChallengeID))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		case prog.Completed:
			res = CompletionResult{Streak: p.StreakCount}
			return nil
		}

		history := append(slices.Clone(prog.AttemptHistory), c.History...)
		histJSON, err := json.Marshal(history)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_progress (user_id, challenge_id, completed, time_taken, completed_at, attempt_history)
			VALUES (?, ?, 1, ?, ?, ?)
			ON CONFLICT(user_id, challenge_id) DO UPDATE SET
				completed = 1,
				time_taken = excluded.time_taken,
				completed_at = excluded.completed_at,
				attempt_history = excluded.attempt_history
		`, c.UserID, c.ChallengeID, c.TimeTaken, s.nowUTC(), string(histJSON))
		if err != nil {
			return err
		}

		streak := algobytes.NextStreak(p.StreakCount, p.LastPlayedDate, c.Today)
		done := p.CompletedChallenges
		if !slices.Contains(done, c.ChallengeID) {
			done = append(done, c.ChallengeID)
		}
		doneJSON, err := json.Marshal(done)
		if err != nil {
			return err
		}
		credits := p.PracticeCredits
		if isDaily != 0 {
			credits += c.Reward
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET streak_count = ?, last_played_date = ?, practice_credits = ?, completed_challenges = ?
			WHERE user_id = ?
		`, streak, c.Today, credits, string(doneJSON), c.UserID)
		if err != nil {
			return err
		}

		res = CompletionResult{Streak: streak, IsNew: true}
		return nil
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("completing challenge: %w", err)
	}
	return res, nil
}
