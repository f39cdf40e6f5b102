package server

import (
	"context"

	"github.com/algobytes/assembler/internal/algobytes"
)

// Store is the persistence boundary of the API. Profile mutations happen only
// inside UnlockChallenge and CompleteChallenge, each a single transaction.
type Store interface {
	CreateUser(ctx context.Context, u NewUser) (algobytes.User, error)
	// UserByEmail returns the user and their password hash.
	UserByEmail(ctx context.Context, email string) (algobytes.User, string, error)
	User(ctx context.Context, id string) (algobytes.User, error)
	Profile(ctx context.Context, userID string) (algobytes.Profile, error)

	Challenge(ctx context.Context, id string) (algobytes.Challenge, error)
	DailyChallenge(ctx context.Context, date string) (algobytes.Challenge, error)
	PracticeChallenges(ctx context.Context) ([]algobytes.ChallengeSummary, error)
	PutChallenge(ctx context.Context, c algobytes.Challenge) error
	CountChallenges(ctx context.Context) (int, error)

	// Progress returns nil and no error when the user has no row for the
	// challenge.
	Progress(ctx context.Context, userID, challengeID string) (*algobytes.Progress, error)
	ProgressByUser(ctx context.Context, userID string) (map[string]algobytes.Progress, error)

	UnlockChallenge(ctx context.Context, userID, challengeID string, cost int) (remaining int, err error)
	CompleteChallenge(ctx context.Context, c Completion) (CompletionResult, error)
}

type NewUser struct {
	Email        string
	Username     string
	PasswordHash string
	Credits      int
}

// Completion describes a fully correct submission.
type Completion struct {
	UserID      string
	ChallengeID string
	// Today is the calendar date in the requester's zone.
	Today     string
	TimeTaken *int
	// History holds earlier attempt lines followed by the winning line.
	History []string
	// Reward is credited on the first completion of a daily challenge.
	Reward int
}

type CompletionResult struct {
	Streak int
	IsNew  bool
}
