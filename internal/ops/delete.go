package ops

import (
	"context"
	"slices"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/metrics"
	"github.com/hpungsan/sprout/internal/reflection"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	User string
	ID   string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

// Delete removes one entry from a user's journal.
func Delete(ctx context.Context, repo reflection.Repository, cfg *config.Config, input DeleteInput) (*DeleteOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}
	id, err := ValidateID(input.ID)
	if err != nil {
		return nil, err
	}

	j, err := mutate(ctx, repo, cfg, user, func(entries []reflection.Entry) ([]reflection.Entry, error) {
		i := indexOf(entries, id)
		if i < 0 {
			return nil, errors.NewNotFound(id)
		}
		return slices.Delete(entries, i, i+1), nil
	})
	if err != nil {
		return nil, err
	}

	metrics.NewMetrics().EntriesDeleted.Inc()

	return &DeleteOutput{
		Deleted: true,
		ID:      id,
		Version: j.Version,
	}, nil
}
