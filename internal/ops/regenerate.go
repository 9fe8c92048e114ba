package ops

import (
	"context"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/metrics"
	"github.com/hpungsan/sprout/internal/reflection"
)

// RegenerateInput contains parameters for the Regenerate operation.
type RegenerateInput struct {
	User string
	ID   string
}

// RegenerateOutput contains the result of the Regenerate operation.
type RegenerateOutput struct {
	Entry   reflection.Entry `json:"entry"`
	Version int64            `json:"version"`
}

// Regenerate replaces an entry's feedback with a freshly generated report.
// The entry's answers, date and rating are untouched.
func Regenerate(ctx context.Context, repo reflection.Repository, gen FeedbackGenerator, cfg *config.Config, input RegenerateInput) (*RegenerateOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}
	id, err := ValidateID(input.ID)
	if err != nil {
		return nil, err
	}

	var updated reflection.Entry
	j, err := mutate(ctx, repo, cfg, user, func(entries []reflection.Entry) ([]reflection.Entry, error) {
		i := indexOf(entries, id)
		if i < 0 {
			return nil, errors.NewNotFound(id)
		}
		fb := gen.Generate(entries[i])
		entries[i].Feedback = &fb
		updated = entries[i]
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	fb := updated.Feedback
	metrics.NewMetrics().RecordFeedback(string(updated.LessonID.Resolve()), "regenerate", fb.Score.Depth, fb.Score.Application, fb.Score.SelfAwareness)

	return &RegenerateOutput{Entry: updated, Version: j.Version}, nil
}
