package ops

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
)

func TestDelete_ByID(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	keep := writeTestEntry(t, repo, "u", "", "keep", now)
	drop := writeTestEntry(t, repo, "u", "", "drop", now.Add(time.Minute))

	out, err := Delete(context.Background(), repo, config.DefaultConfig(), DeleteInput{User: "u", ID: drop.ID})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.Deleted || out.ID != drop.ID {
		t.Errorf("output = %+v", out)
	}

	j, err := repo.LoadAll(context.Background(), "u")
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(j.Entries) != 1 || j.Entries[0].ID != keep.ID {
		t.Errorf("remaining = %+v", j.Entries)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	writeTestEntry(t, repo, "u", "", "a", time.Now())

	_, err := Delete(context.Background(), repo, nil, DeleteInput{User: "u", ID: "missing"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}

	// The journal version is unchanged by a failed delete.
	j, err := repo.LoadAll(context.Background(), "u")
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if j.Version != 1 {
		t.Errorf("Version = %d, want 1", j.Version)
	}
}

func TestDelete_AlreadyDeleted(t *testing.T) {
	repo := newTestRepo(t)
	e := writeTestEntry(t, repo, "u", "", "a", time.Now())

	if _, err := Delete(context.Background(), repo, nil, DeleteInput{User: "u", ID: e.ID}); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if _, err := Delete(context.Background(), repo, nil, DeleteInput{User: "u", ID: e.ID}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete err = %v, want NOT_FOUND", err)
	}
}
