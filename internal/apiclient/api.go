package apiclient

import (
	"context"
	"net/http"

	"github.com/algobytes/assembler/internal/algobytes"
	"github.com/algobytes/assembler/internal/board"
)

var _ board.Validator = (*Client)(nil)

// Session is returned by signup and login.
type Session struct {
	Token string         `json:"token"`
	User  algobytes.User `json:"user"`
}

type Me struct {
	User    algobytes.User    `json:"user"`
	Profile algobytes.Profile `json:"profile"`
}

// ChallengeState is a challenge plus the caller's progress on it.
type ChallengeState struct {
	algobytes.Challenge
	Completed      bool     `json:"completed"`
	Streak         int      `json:"streak"`
	TimeTaken      *int     `json:"time_taken,omitempty"`
	AttemptHistory []string `json:"attempt_history,omitempty"`
}

type PracticeItem struct {
	algobytes.ChallengeSummary
	Status algobytes.PracticeStatus `json:"status"`
}

type UnlockResult struct {
	Success          bool `json:"success"`
	RemainingCredits int  `json:"remaining_credits"`
}

// Signup creates an account and keeps its session token.
func (c *Client) Signup(ctx context.Context, email, username, password string) (Session, error) {
	in := map[string]string{
		"email":            email,
		"username":         username,
		"password":         password,
		"confirm_password": password,
	}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", in, &s); err != nil {
		return Session{}, err
	}
	c.setToken(s.Token)
	return s, nil
}

// Login signs in and keeps the session token.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	in := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &s); err != nil {
		return Session{}, err
	}
	c.setToken(s.Token)
	return s, nil
}

// Logout forgets the session token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (Me, error) {
	var me Me
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &me)
	return me, err
}

func (c *Client) Challenge(ctx context.Context, id string) (ChallengeState, error) {
	var cs ChallengeState
	err := c.do(ctx, http.MethodGet, challengePath(id), nil, &cs)
	return cs, err
}

func (c *Client) Today(ctx context.Context) (ChallengeState, error) {
	var cs ChallengeState
	err := c.do(ctx, http.MethodGet, "/api/challenges/today", nil, &cs)
	return cs, err
}

func (c *Client) Practice(ctx context.Context) ([]PracticeItem, error) {
	var items []PracticeItem
	err := c.do(ctx, http.MethodGet, "/api/challenges/practice", nil, &items)
	return items, err
}

func (c *Client) Unlock(ctx context.Context, id string) (UnlockResult, error) {
	var res UnlockResult
	err := c.do(ctx, http.MethodPost, challengePath(id)+"/unlock", nil, &res)
	return res, err
}

// Validate submits a solution. It is never retried.
func (c *Client) Validate(ctx context.Context, challengeID string, sub algobytes.Submission) (algobytes.Verdict, error) {
	var v algobytes.Verdict
	err := c.do(ctx, http.MethodPost, challengePath(challengeID)+"/validate", sub, &v)
	return v, err
}
