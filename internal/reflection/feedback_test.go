package reflection

import (
	"slices"
	"strings"
	"testing"
)

// scenarioEntry has exactly 50 words, three intermediate concepts and a
// 35-character reasoning that mentions PER.
func scenarioEntry() Entry {
	return Entry{
		ID:       "01TEST",
		LessonID: Lesson3,
		Questions: Questions{
			WhatLearned: strings.Repeat("공부 ", 45) + "분산투자 기회비용",
			HowApply:    strings.Repeat("실천", 30),
			NextGoal:    strings.Repeat("목표", 20),
		},
		InvestmentReflection: &InvestmentReflection{
			Reasoning: "PER" + strings.Repeat("낮음", 16),
		},
		Rating: 4,
	}
}

func TestGenerate_ScenarioConcepts(t *testing.T) {
	fb := NewSeededGenerator(1).Generate(scenarioEntry())

	if fb.Score.Depth != 50 {
		t.Errorf("Depth = %d, want 50", fb.Score.Depth)
	}
	wantConcepts := []string{"분산투자", "기회비용", "PER"}
	if !slices.Equal(fb.RelatedConcepts, wantConcepts) {
		t.Errorf("RelatedConcepts = %v, want %v", fb.RelatedConcepts, wantConcepts)
	}
	// Application and next-goal strengths come before reasoning and fill
	// the three slots.
	wantStrengths := []string{StrengthIntermediate, StrengthApplication, StrengthNextGoal}
	if !slices.Equal(fb.Strengths, wantStrengths) {
		t.Errorf("Strengths = %v, want %v", fb.Strengths, wantStrengths)
	}
	if fb.Score.Application != 54 {
		t.Errorf("Application = %d, want 54", fb.Score.Application)
	}
	if fb.Score.SelfAwareness != 20 {
		t.Errorf("SelfAwareness = %d, want 20", fb.Score.SelfAwareness)
	}
}

func TestGenerate_ReasoningStrength(t *testing.T) {
	e := scenarioEntry()
	e.Questions.HowApply = strings.Repeat("실천", 10)

	fb := NewSeededGenerator(1).Generate(e)

	want := []string{StrengthIntermediate, StrengthNextGoal, StrengthReasoning}
	if !slices.Equal(fb.Strengths, want) {
		t.Errorf("Strengths = %v, want %v", fb.Strengths, want)
	}
}

func TestGenerate_EmptyEntry(t *testing.T) {
	fb := NewSeededGenerator(7).Generate(Entry{Rating: 3})

	if !slices.Equal(fb.Strengths, []string{StrengthDefault}) {
		t.Errorf("Strengths = %v, want default", fb.Strengths)
	}
	wantSuggestions := []string{SuggestMoreDetail, SuggestConcepts, SuggestData}
	if !slices.Equal(fb.Suggestions, wantSuggestions) {
		t.Errorf("Suggestions = %v, want %v", fb.Suggestions, wantSuggestions)
	}
	if fb.Score.Depth != 0 {
		t.Errorf("Depth = %d, want 0", fb.Score.Depth)
	}
	if fb.Score.Application != 0 {
		t.Errorf("Application = %d, want 0", fb.Score.Application)
	}
	if fb.Score.SelfAwareness != 20 {
		t.Errorf("SelfAwareness = %d, want 20 (rating only)", fb.Score.SelfAwareness)
	}
	if len(fb.RelatedConcepts) != 0 {
		t.Errorf("RelatedConcepts = %v, want empty", fb.RelatedConcepts)
	}
}

func TestGenerate_DefaultSuggestion(t *testing.T) {
	e := Entry{
		Questions: Questions{
			WhatLearned: strings.Repeat("차트 분석 분산투자 후회 ", 10),
			HowApply:    strings.Repeat("가", 25),
		},
		InvestmentReflection: &InvestmentReflection{WouldChange: "더 기다리기"},
		Rating:               5,
	}

	fb := NewSeededGenerator(1).Generate(e)

	if !slices.Equal(fb.Suggestions, []string{SuggestDefault}) {
		t.Errorf("Suggestions = %v, want default", fb.Suggestions)
	}
}

func TestGenerate_ScoresClamped(t *testing.T) {
	e := Entry{
		Questions: Questions{
			WhatLearned:   strings.Repeat("단어 ", 500),
			WhatDifficult: strings.Repeat("어렵다", 200) + " 불안 흥분 후회 만족 자신감 두려움",
			HowApply:      strings.Repeat("적용", 300),
			NextGoal:      strings.Repeat("목표", 300),
		},
		InvestmentReflection: &InvestmentReflection{Decision: "매수", WouldChange: "분할 매수"},
		Rating:               5,
	}

	fb := NewSeededGenerator(3).Generate(e)

	for name, v := range map[string]int{
		"depth":         fb.Score.Depth,
		"application":   fb.Score.Application,
		"selfAwareness": fb.Score.SelfAwareness,
	} {
		if v != 100 {
			t.Errorf("%s = %d, want 100", name, v)
		}
	}
}

func TestGenerate_RelatedConceptsCapped(t *testing.T) {
	e := Entry{
		Questions: Questions{
			WhatLearned: strings.Join(IntermediateWords, " ") + " " + strings.Join(AdvancedWords, " ") + " 분산투자 PER per 분석 차트",
		},
	}

	fb := NewSeededGenerator(1).Generate(e)

	if len(fb.RelatedConcepts) != 5 {
		t.Fatalf("len(RelatedConcepts) = %d, want 5", len(fb.RelatedConcepts))
	}
	if !slices.Equal(fb.RelatedConcepts, IntermediateWords[:5]) {
		t.Errorf("RelatedConcepts = %v, want first five intermediate words", fb.RelatedConcepts)
	}
	if len(fb.Strengths) != 3 {
		t.Errorf("len(Strengths) = %d, want 3", len(fb.Strengths))
	}
}

func TestGenerate_CaseInsensitiveConcepts(t *testing.T) {
	e := Entry{Questions: Questions{WhatLearned: "pbr 과 Per 를 비교했다"}}

	fb := NewSeededGenerator(1).Generate(e)

	want := []string{"PER", "PBR"}
	if !slices.Equal(fb.RelatedConcepts, want) {
		t.Errorf("RelatedConcepts = %v, want %v", fb.RelatedConcepts, want)
	}
}

func TestGenerate_Invariants(t *testing.T) {
	entries := []Entry{
		{},
		scenarioEntry(),
		{LessonID: "lesson-9", Questions: Questions{WhatLearned: "리스크 변동성 베타 알파 헤지 옵션 선물 레버리지"}},
		{Questions: Questions{HowApply: strings.Repeat("x", 1000)}, Rating: 1},
	}
	g := NewGenerator(nil)

	for i, e := range entries {
		fb := g.Generate(e)
		if n := len(fb.Strengths); n < 1 || n > 3 {
			t.Errorf("entry %d: len(Strengths) = %d", i, n)
		}
		if n := len(fb.Suggestions); n < 1 || n > 3 {
			t.Errorf("entry %d: len(Suggestions) = %d", i, n)
		}
		if len(fb.RelatedConcepts) > 5 {
			t.Errorf("entry %d: len(RelatedConcepts) = %d", i, len(fb.RelatedConcepts))
		}
		seen := map[string]bool{}
		for _, c := range fb.RelatedConcepts {
			if seen[c] {
				t.Errorf("entry %d: duplicate concept %q", i, c)
			}
			seen[c] = true
		}
		for _, s := range []int{fb.Score.Depth, fb.Score.Application, fb.Score.SelfAwareness} {
			if s < 0 || s > 100 {
				t.Errorf("entry %d: score %d out of range", i, s)
			}
		}
		if !slices.Contains(EncouragementPool(e.LessonID), fb.Encouragement) {
			t.Errorf("entry %d: encouragement %q not in pool", i, fb.Encouragement)
		}
		if !slices.Contains(GrowthTips, fb.GrowthTip) {
			t.Errorf("entry %d: growth tip %q not in pool", i, fb.GrowthTip)
		}
	}
}

func TestGenerate_SeededDeterminism(t *testing.T) {
	e := scenarioEntry()

	a := NewSeededGenerator(42).Generate(e)
	b := NewSeededGenerator(42).Generate(e)

	if !slices.Equal(a.Strengths, b.Strengths) || !slices.Equal(a.Suggestions, b.Suggestions) {
		t.Error("strengths/suggestions differ between seeded runs")
	}
	if a.Score != b.Score {
		t.Errorf("Score %+v != %+v", a.Score, b.Score)
	}
	if a.Encouragement != b.Encouragement || a.GrowthTip != b.GrowthTip {
		t.Error("seeded runs picked different messages")
	}
}

func TestGenerate_UnknownLessonUsesGeneralPool(t *testing.T) {
	fb := NewSeededGenerator(5).Generate(Entry{LessonID: "unknown"})

	if !slices.Contains(encouragements[LessonGeneral], fb.Encouragement) {
		t.Errorf("Encouragement %q not in general pool", fb.Encouragement)
	}
}

func TestPools(t *testing.T) {
	if len(encouragements) != len(Lessons) {
		t.Errorf("encouragement pools = %d, want %d", len(encouragements), len(Lessons))
	}
	for _, id := range Lessons {
		if n := len(encouragements[id]); n != 3 {
			t.Errorf("pool %s has %d messages, want 3", id, n)
		}
		if LessonTitle(id) == "" {
			t.Errorf("lesson %s has no title", id)
		}
	}
	if len(GrowthTips) != 7 {
		t.Errorf("len(GrowthTips) = %d, want 7", len(GrowthTips))
	}
}

func TestScoreBand(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "good"},
		{70, "good"},
		{69, "fair"},
		{40, "fair"},
		{39, "low"},
		{0, "low"},
	}
	for _, tt := range tests {
		if got := ScoreBand(tt.score); got != tt.want {
			t.Errorf("ScoreBand(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestLessonID_Resolve(t *testing.T) {
	if got := LessonID("lesson-2").Resolve(); got != Lesson2 {
		t.Errorf("Resolve(lesson-2) = %q", got)
	}
	if got := LessonID("lesson-5").Resolve(); got != LessonGeneral {
		t.Errorf("Resolve(lesson-5) = %q, want general", got)
	}
	if got := LessonID("").Resolve(); got != LessonGeneral {
		t.Errorf("Resolve(\"\") = %q, want general", got)
	}
}
