package ops

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/reflection"
)

func TestList_HappyPath(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	first := writeTestEntry(t, repo, "u", "lesson-1", "a", base)
	second := writeTestEntry(t, repo, "u", "lesson-2", "b", base.Add(time.Hour))

	out, err := List(context.Background(), repo, ListInput{User: "u"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(out.Items))
	}
	if out.Items[0].ID != second.ID || out.Items[1].ID != first.ID {
		t.Errorf("order = [%s %s], want newest first", out.Items[0].ID, out.Items[1].ID)
	}
	if out.Pagination.Total != 2 || out.Pagination.HasMore {
		t.Errorf("Pagination = %+v", out.Pagination)
	}
	if out.Sort != "date_desc" {
		t.Errorf("Sort = %q", out.Sort)
	}
	if out.Version != 2 {
		t.Errorf("Version = %d, want 2", out.Version)
	}
}

func TestList_LessonFilter(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()
	writeTestEntry(t, repo, "u", "lesson-1", "a", now)
	writeTestEntry(t, repo, "u", "lesson-3", "b", now)
	writeTestEntry(t, repo, "u", "lesson-1", "c", now)

	out, err := List(context.Background(), repo, ListInput{User: "u", Lesson: "lesson-1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 2 {
		t.Errorf("Total = %d, want 2", out.Pagination.Total)
	}
	for _, e := range out.Items {
		if e.LessonID != reflection.Lesson1 {
			t.Errorf("unexpected lesson %q", e.LessonID)
		}
	}

	all, err := List(context.Background(), repo, ListInput{User: "u", Lesson: LessonAll})
	if err != nil {
		t.Fatalf("List(all) failed: %v", err)
	}
	if all.Pagination.Total != 3 {
		t.Errorf("Total(all) = %d, want 3", all.Pagination.Total)
	}

	if _, err := List(context.Background(), repo, ListInput{User: "u", Lesson: "lesson-9"});!errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown lesson err = %v, want INVALID_REQUEST", err)
	}
}

func TestList_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		writeTestEntry(t, repo, "u", "", fmt.Sprintf("entry %d", i), base.Add(time.Duration(i)*time.Hour))
	}

	out, err := List(context.Background(), repo, ListInput{User: "u", Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 || !out.Pagination.HasMore {
		t.Errorf("page 1 = %d items, has_more=%v", len(out.Items), out.Pagination.HasMore)
	}
	if out.Items[0].Questions.WhatLearned != "entry 4" {
		t.Errorf("first item = %q, want entry 4", out.Items[0].Questions.WhatLearned)
	}

	out, err = List(context.Background(), repo, ListInput{User: "u", Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 || out.Pagination.HasMore {
		t.Errorf("last page = %d items, has_more=%v", len(out.Items), out.Pagination.HasMore)
	}

	out, err = List(context.Background(), repo, ListInput{User: "u", Offset: 50})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("past-end Items = %v, want empty non-nil", out.Items)
	}
}

func TestList_LimitBounds(t *testing.T) {
	repo := newTestRepo(t)

	out, err := List(context.Background(), repo, ListInput{User: "u", Limit: 0})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, DefaultListLimit)
	}

	out, err = List(context.Background(), repo, ListInput{User: "u", Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Limit != MaxListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, MaxListLimit)
	}
	if out.Pagination.Offset != 0 {
		t.Errorf("Offset = %d, want 0", out.Pagination.Offset)
	}
}
