package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/algobytes/assembler/internal/algobytes"
)

//go:embed seed/challenges.json
var seedCatalogue []byte

// SeedCatalogue loads the embedded challenges when the store has none.
// Daily challenges are scheduled on consecutive days starting at start, in
// catalogue order. Idempotent: does nothing if any challenge exists.
func SeedCatalogue(ctx context.Context, logger *slog.Logger, store Store, start time.Time) error {
	n, err := store.CountChallenges(ctx)
	if err != nil {
		return fmt.Errorf("counting challenges: %w", err)
	}
	if n > 0 {
		return nil
	}

	challenges, err := parseCatalogue(seedCatalogue, start)
	if err != nil {
		return err
	}
	for _, c := range challenges {
		if err := store.PutChallenge(ctx, c); err != nil {
			return fmt.Errorf("seeding %s: %w", c.ID, err)
		}
	}

	logger.Info("challenge catalogue seeded", "challenges", len(challenges))
	return nil
}

func parseCatalogue(raw []byte, start time.Time) ([]algobytes.Challenge, error) {
	var challenges []algobytes.Challenge
	if err := json.Unmarshal(raw, &challenges); err != nil {
		return nil, fmt.Errorf("decoding catalogue: %w", err)
	}

	day := 0
	for i := range challenges {
		c := &challenges[i]
		if err := c.Data.Validate(); err != nil {
			return nil, fmt.Errorf("catalogue entry %s: %w", c.ID, err)
		}
		if c.GameType == "" {
			c.GameType = algobytes.GameTypeCodeAssembler
		}
		// Stable catalogue order for the practice list.
		c.CreatedAt = start.Add(time.Duration(i) * time.Second)
		if c.IsDaily {
			date := start.AddDate(0, 0, day).Format(algobytes.DateLayout)
			c.DailyDate = &date
			day++
		}
	}
	return challenges, nil
}
