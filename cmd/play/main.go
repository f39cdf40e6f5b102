// Command play is a terminal client for AlgoBytes puzzles.
//
//	ALGOBYTES_EMAIL=me@example.com ALGOBYTES_PASSWORD=... play [challenge-id]
//
// Without a challenge id it loads today's daily puzzle.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/algobytes/assembler/internal/apiclient"
	"github.com/algobytes/assembler/internal/board"
)

type config struct {
	URL      string `env:"ALGOBYTES_URL" envDefault:"http://localhost:8080"`
	Email    string `env:"ALGOBYTES_EMAIL,required"`
	Password string `env:"ALGOBYTES_PASSWORD,required"`
	// Username is used when the account has to be created.
	Username string `env:"ALGOBYTES_USERNAME"`
	Timezone string `env:"TZ"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading env file: %w", err)
	}
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	client := apiclient.New(cfg.URL, apiclient.WithTimezone(cfg.Timezone))
	if err := signIn(ctx, client, cfg); err != nil {
		return err
	}

	var cs apiclient.ChallengeState
	if len(args) > 0 {
		cs, err = client.Challenge(ctx, args[0])
	} else {
		cs, err = client.Today(ctx)
	}
	if err != nil {
		return fmt.Errorf("loading challenge: %w", err)
	}

	p := &player{
		b:   board.New(cs.Challenge, cs.Completed, board.WithStreak(cs.Streak)),
		v:   client,
		out: stdout,
	}
	p.show()

	sc := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if p.exec(ctx, sc.Text()) {
			return nil
		}
	}
}

// signIn logs in, creating the account on first use.
func signIn(ctx context.Context, c *apiclient.Client, cfg config) error {
	_, err := c.Login(ctx, cfg.Email, cfg.Password)
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	username := cfg.Username
	if username == "" {
		username, _, _ = strings.Cut(cfg.Email, "@")
	}
	_, err = c.Signup(ctx, cfg.Email, username, cfg.Password)
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return errors.New("wrong password for " + cfg.Email)
	}
	return err
}
