package ops

import (
	"context"
	"encoding/json"

	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/reflection"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	User string
	ID   string
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	reflection.Entry        // embedded (copy, not pointer)
	LessonTitle      string `json:"lessonTitle"`
}

// UnmarshalJSON decodes the flat entry shape plus lessonTitle. Without it the
// embedded Entry's decoder would take over and drop lessonTitle.
func (o *FetchOutput) UnmarshalJSON(data []byte) error {
	if err := o.Entry.UnmarshalJSON(data); err != nil {
		return err
	}
	var title struct {
		LessonTitle string `json:"lessonTitle"`
	}
	if err := json.Unmarshal(data, &title); err != nil {
		return err
	}
	o.LessonTitle = title.LessonTitle
	return nil
}

// Fetch retrieves one entry from a user's journal.
func Fetch(ctx context.Context, repo reflection.Repository, input FetchInput) (*FetchOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}
	id, err := ValidateID(input.ID)
	if err != nil {
		return nil, err
	}

	j, err := repo.LoadAll(ctx, user)
	if err != nil {
		return nil, err
	}

	i := indexOf(j.Entries, id)
	if i < 0 {
		return nil, errors.NewNotFound(id)
	}

	e := j.Entries[i]
	return &FetchOutput{
		Entry:       e,
		LessonTitle: reflection.LessonTitle(e.LessonID.Resolve()),
	}, nil
}
