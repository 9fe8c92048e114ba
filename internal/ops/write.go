package ops

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/metrics"
	"github.com/hpungsan/sprout/internal/reflection"
)

// DefaultRating is applied when a write leaves the rating unset.
const DefaultRating = 3

// WriteInput contains parameters for the Write operation.
type WriteInput struct {
	User                 string // required
	LessonID             string // default: general; unknown ids resolve to general
	Questions            reflection.Questions
	InvestmentReflection *reflection.InvestmentReflection
	Rating               int       // 0 means DefaultRating, otherwise 1..5
	Now                  time.Time // default: time.Now()
}

// WriteOutput contains the result of the Write operation.
type WriteOutput struct {
	Entry   reflection.Entry `json:"entry"`
	Version int64            `json:"version"`
}

// Write creates a journal entry, attaches generated feedback and prepends it
// to the user's history.
func Write(ctx context.Context, repo reflection.Repository, gen FeedbackGenerator, cfg *config.Config, input WriteInput) (*WriteOutput, error) {
	cfg = settings(cfg)

	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Questions.WhatLearned) == "" {
		return nil, errors.NewInvalidRequest("whatLearned is required")
	}

	rating := input.Rating
	if rating == 0 {
		rating = DefaultRating
	}
	if rating < 1 || rating > 5 {
		return nil, errors.NewInvalidRequest("rating must be between 1 and 5")
	}

	inv := cleanInvestment(input.InvestmentReflection)
	if err := checkSizes(cfg.MaxEntryChars, input.Questions, inv); err != nil {
		return nil, err
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	id, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	entry := reflection.Entry{
		ID:                   id,
		LessonID:             reflection.LessonID(input.LessonID).Resolve(),
		Date:                 now.UTC().Truncate(reflection.DatePrecision),
		Questions:            input.Questions,
		InvestmentReflection: inv,
		Rating:               rating,
	}
	fb := gen.Generate(entry)
	entry.Feedback = &fb

	j, err := mutate(ctx, repo, cfg, user, func(entries []reflection.Entry) ([]reflection.Entry, error) {
		return append([]reflection.Entry{entry}, entries...), nil
	})
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	m.EntriesWritten.WithLabelValues(string(entry.LessonID)).Inc()
	m.RecordFeedback(string(entry.LessonID), "write", fb.Score.Depth, fb.Score.Application, fb.Score.SelfAwareness)

	return &WriteOutput{Entry: entry, Version: j.Version}, nil
}

// cleanInvestment drops an investment reflection whose fields are all blank.
func cleanInvestment(inv *reflection.InvestmentReflection) *reflection.InvestmentReflection {
	if inv == nil {
		return nil
	}
	if strings.TrimSpace(inv.Decision) == "" && strings.TrimSpace(inv.Reasoning) == "" &&
		strings.TrimSpace(inv.Outcome) == "" && strings.TrimSpace(inv.WouldChange) == "" {
		return nil
	}
	c := *inv
	return &c
}

// checkSizes rejects any answer longer than maxChars characters.
func checkSizes(maxChars int, q reflection.Questions, inv *reflection.InvestmentReflection) error {
	if maxChars <= 0 {
		return nil
	}
	fields := []struct {
		name, value string
	}{
		{"whatLearned", q.WhatLearned},
		{"whatDifficult", q.WhatDifficult},
		{"howApply", q.HowApply},
		{"nextGoal", q.NextGoal},
	}
	if inv != nil {
		fields = append(fields, []struct{ name, value string }{
			{"decision", inv.Decision},
			{"reasoning", inv.Reasoning},
			{"outcome", inv.Outcome},
			{"wouldChange", inv.WouldChange},
		}...)
	}
	for _, f := range fields {
		if n := utf8.RuneCountInString(f.value); n > maxChars {
			return errors.NewEntryTooLarge(f.name, maxChars, n)
		}
	}
	return nil
}
