package ops

import (
	"context"
	"time"

	"github.com/hpungsan/sprout/internal/reflection"
)

// InsightsInput contains parameters for the Insights operation.
type InsightsInput struct {
	User     string
	Now      time.Time      // default: time.Now()
	Location *time.Location // calendar zone for streak and weekly counts; default: Now's zone
}

// InsightsOutput contains the journal analytics for one user.
type InsightsOutput struct {
	User     string                    `json:"user"`
	Stats    reflection.Stats          `json:"stats"`
	Streak   int                       `json:"streak"`
	Insights []reflection.Insight      `json:"insights"`
	Keywords []reflection.KeywordCount `json:"keywords"`
	Growth   reflection.Growth         `json:"growth"`
}

// Insights computes streak, trend insights, keyword frequencies and summary
// statistics over a user's history. It never modifies the journal.
func Insights(ctx context.Context, repo reflection.Repository, input InsightsInput) (*InsightsOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if input.Location != nil {
		now = now.In(input.Location)
	}

	j, err := repo.LoadAll(ctx, user)
	if err != nil {
		return nil, err
	}

	stats := reflection.Summarize(j.Entries, now)
	keywords := reflection.Keywords(j.Entries)

	return &InsightsOutput{
		User:     user,
		Stats:    stats,
		Streak:   stats.Streak,
		Insights: reflection.Insights(j.Entries),
		Keywords: keywords,
		Growth:   reflection.GrowthSummary(j.Entries, stats.Streak, keywords),
	}, nil
}
