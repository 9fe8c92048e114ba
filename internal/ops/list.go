package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/reflection"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	User   string // required
	Lesson string // optional filter; "" or LessonAll means every lesson
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []reflection.Entry `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Version    int64              `json:"version"`
	Sort       string             `json:"sort"`
}

// LessonAll is the lesson filter value that matches every entry.
const LessonAll = "all"

// List retrieves a page of a user's entries, newest first.
func List(ctx context.Context, repo reflection.Repository, input ListInput) (*ListOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}

	var lesson reflection.LessonID
	if s := strings.TrimSpace(input.Lesson); s != "" && s != LessonAll {
		lesson = reflection.LessonID(s)
		if !lesson.Known() {
			return nil, errors.NewInvalidRequest("unknown lesson: " + s)
		}
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	// Ensure offset is non-negative
	offset := max(input.Offset, 0)

	j, err := repo.LoadAll(ctx, user)
	if err != nil {
		return nil, err
	}

	matched := j.Entries
	if lesson != "" {
		matched = make([]reflection.Entry, 0, len(j.Entries))
		for _, e := range j.Entries {
			if e.LessonID.Resolve() == lesson {
				matched = append(matched, e)
			}
		}
	}

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)

	// Ensure we return an empty array rather than nil
	items := append([]reflection.Entry{}, matched[start:end]...)

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
		Version: j.Version,
		Sort:    "date_desc",
	}, nil
}
