package ops

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/reflection"
	"github.com/stretchr/testify/require"
)

// TestFullWorkflow exercises the complete journal lifecycle:
// write → fetch → list → regenerate → insights → export → delete → import
func TestFullWorkflow(t *testing.T) {
	repo := newTestRepo(t)
	dir := t.TempDir()
	cfg := exportConfig(dir)
	gen := reflection.NewSeededGenerator(42)
	ctx := context.Background()
	user := "student-42"
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	// 1. Write two days in a row
	first, err := Write(ctx, repo, gen, cfg, WriteInput{
		User:      user,
		LessonID:  "lesson-1",
		Questions: reflection.Questions{WhatLearned: "주식과 채권의 차이", HowApply: "분산투자 해보기"},
		Now:       now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	second, err := Write(ctx, repo, gen, cfg, WriteInput{
		User:                 user,
		LessonID:             "lesson-3",
		Questions:            reflection.Questions{WhatLearned: "PER 과 PBR 로 기업 가치 분석"},
		InvestmentReflection: &reflection.InvestmentReflection{Decision: "매수", WouldChange: "분할 매수"},
		Rating:               5,
		Now:                  now,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Version)
	require.Equal(t, []string{"PER", "PBR"}, second.Entry.Feedback.RelatedConcepts)

	// 2. Fetch
	fetched, err := Fetch(ctx, repo, FetchInput{User: user, ID: first.Entry.ID})
	require.NoError(t, err)
	require.Equal(t, first.Entry.Questions, fetched.Questions)

	// 3. List newest first
	listOut, err := List(ctx, repo, ListInput{User: user})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 2)
	require.Equal(t, second.Entry.ID, listOut.Items[0].ID)

	// 4. Regenerate keeps the entry in place
	regen, err := Regenerate(ctx, repo, gen, cfg, RegenerateInput{User: user, ID: first.Entry.ID})
	require.NoError(t, err)
	require.NotNil(t, regen.Entry.Feedback)
	require.Equal(t, first.Entry.Feedback.Score, regen.Entry.Feedback.Score)

	// 5. Insights
	insights, err := Insights(ctx, repo, InsightsInput{User: user, Now: now})
	require.NoError(t, err)
	require.Equal(t, 2, insights.Streak)
	require.Len(t, insights.Insights, 3)
	require.NotEmpty(t, insights.Keywords)

	// 6. Export
	exportPath := filepath.Join(dir, "workflow.jsonl")
	exportOut, err := Export(ctx, repo, cfg, ExportInput{User: user, Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, 2, exportOut.Count)

	// 7. Delete, then fetch is 404
	_, err = Delete(ctx, repo, cfg, DeleteInput{User: user, ID: first.Entry.ID})
	require.NoError(t, err)
	_, err = Fetch(ctx, repo, FetchInput{User: user, ID: first.Entry.ID})
	require.Error(t, err)
	var sproutErr *errors.SproutError
	require.ErrorAs(t, err, &sproutErr)
	require.Equal(t, errors.ErrNotFound, sproutErr.Code)

	// 8. Import restores the deleted entry, skips the one still present
	importOut, err := Import(ctx, repo, gen, cfg, ImportInput{User: user, Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, 1, importOut.Imported)
	require.Equal(t, 1, importOut.Skipped)

	listOut, err = List(ctx, repo, ListInput{User: user})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 2)
	require.Equal(t, second.Entry.ID, listOut.Items[0].ID)
	require.Equal(t, first.Entry.ID, listOut.Items[1].ID)
}
