package ops

import (
	"context"
	"crypto/rand"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/metrics"
	"github.com/hpungsan/sprout/internal/reflection"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// FeedbackGenerator produces the feedback report for one entry.
type FeedbackGenerator interface {
	Generate(e reflection.Entry) reflection.Feedback
}

// ValidateUser trims and requires the opaque user identifier.
func ValidateUser(user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.NewInvalidRequest("user is required")
	}
	return user, nil
}

// ValidateID trims and requires an entry id.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// mutate runs one read-modify-write of a user's journal. When another writer
// saves first, the journal is re-read and fn re-applied, up to SaveRetries
// extra attempts; after that the CONFLICT is returned.
//
// fn receives a copy of the stored entries and returns the full replacement.
func mutate(ctx context.Context, repo reflection.Repository, cfg *config.Config, user string, fn func([]reflection.Entry) ([]reflection.Entry, error)) (*reflection.Journal, error) {
	m := metrics.NewMetrics()
	attempts := 1 + max(0, settings(cfg).SaveRetries)

	var lastErr error
	for attempt := range attempts {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("save")
		}
		if attempt > 0 {
			m.SaveRetries.Inc()
		}

		j, err := repo.LoadAll(ctx, user)
		if err != nil {
			return nil, err
		}

		next, err := fn(slices.Clone(j.Entries))
		if err != nil {
			return nil, err
		}

		version, err := repo.SaveAll(ctx, user, next, j.Version)
		if err == nil {
			return &reflection.Journal{UserID: user, Entries: next, Version: version}, nil
		}
		if !errors.Is(err, errors.ErrConflict) {
			return nil, err
		}
		m.SaveConflicts.Inc()
		lastErr = err
	}
	return nil, lastErr
}

// indexOf returns the position of the entry with id, or -1.
func indexOf(entries []reflection.Entry, id string) int {
	return slices.IndexFunc(entries, func(e reflection.Entry) bool { return e.ID == id })
}

// sortNewestFirst orders entries by date descending. Entries with the same
// date keep their relative order.
func sortNewestFirst(entries []reflection.Entry) {
	slices.SortStableFunc(entries, func(a, b reflection.Entry) int {
		return b.Date.Compare(a.Date)
	})
}

// settings returns cfg, or the defaults when cfg is nil.
func settings(cfg *config.Config) *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// generateULID generates a new ULID.
func generateULID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
