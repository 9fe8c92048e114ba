package reflection

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	insightWindow = 5
	maxKeywords   = 10
	dayLayout     = "2006-01-02"
)

// Insight categories and descriptions.
const (
	CategoryDepth        = "Reflection depth"
	CategorySatisfaction = "Learning satisfaction"
	CategoryInvestment   = "Investment reflection"

	DescriptionDepth        = "average word count"
	DescriptionSatisfaction = "average of last 5 entries"
	DescriptionInvestment   = "entries with a decision in the last 5"
)

// Streak counts consecutive calendar days, ending on the day of now, that
// have at least one entry. Calendar days are taken in now's location.
func Streak(entries []Entry, now time.Time) int {
	if len(entries) == 0 {
		return 0
	}
	loc := now.Location()

	days := make(map[string]bool, len(entries))
	for _, e := range entries {
		days[e.Date.In(loc).Format(dayLayout)] = true
	}

	y, m, d := now.Date()
	streak := 0
	for {
		day := time.Date(y, m, d-streak, 12, 0, 0, 0, loc).Format(dayLayout)
		if !days[day] {
			return streak
		}
		streak++
	}
}

// Insights compares the five newest entries with the five before them.
// Entries must be newest-first. Fewer than two entries yield no insights.
//
// When there are no older entries the recent window is used as its own
// baseline, so every trend reads stable until history builds up.
func Insights(entries []Entry) []Insight {
	if len(entries) < 2 {
		return []Insight{}
	}

	recent := entries[:min(insightWindow, len(entries))]
	// Short histories compare the recent window with itself, so trends read stable.
	older := recent
	if len(entries) > insightWindow {
		older = entries[insightWindow:min(2*insightWindow, len(entries))]
	}

	recentWords := average(recent, depthWords)
	olderWords := average(older, depthWords)
	depthTrend := TrendStable
	switch {
	case recentWords > olderWords*1.1:
		depthTrend = TrendUp
	case recentWords < olderWords*0.9:
		depthTrend = TrendDown
	}

	recentRating := average(recent, rating)
	olderRating := average(older, rating)
	ratingTrend := TrendStable
	switch diff := recentRating - olderRating; {
	case diff > 0.3:
		ratingTrend = TrendUp
	case diff < -0.3:
		ratingTrend = TrendDown
	}

	decisions := 0
	for _, e := range recent {
		if e.investment().Decision != "" {
			decisions++
		}
	}
	investTrend := TrendStable
	if decisions >= 3 {
		investTrend = TrendUp
	}

	return []Insight{
		{Category: CategoryDepth, Count: math.Round(recentWords), Trend: depthTrend, Description: DescriptionDepth},
		{Category: CategorySatisfaction, Count: math.Round(recentRating*10) / 10, Trend: ratingTrend, Description: DescriptionSatisfaction},
		{Category: CategoryInvestment, Count: float64(decisions), Trend: investTrend, Description: DescriptionInvestment},
	}
}

// depthWords counts words of whatLearned and howApply joined with no
// separator, so the last word of one and the first of the other count once.
func depthWords(e Entry) float64 {
	return float64(len(strings.Fields(e.Questions.WhatLearned + e.Questions.HowApply)))
}

func rating(e Entry) float64 {
	return float64(e.Rating)
}

func average(entries []Entry, f func(Entry) float64) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entries {
		sum += f(e)
	}
	return sum / float64(len(entries))
}

// Keywords ranks vocabulary words by how often they appear in the learned,
// application and reasoning answers across all entries. At most ten words
// are returned; ties keep vocabulary order.
func Keywords(entries []Entry) []KeywordCount {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Questions.WhatLearned+" "+e.Questions.HowApply+" "+e.investment().Reasoning)
	}
	corpus := strings.ToLower(strings.Join(parts, " "))

	counts := make([]KeywordCount, 0, len(keywordMatchers))
	for _, m := range keywordMatchers {
		if n := m.count(corpus); n > 0 {
			counts = append(counts, KeywordCount{Word: m.word, Count: n})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > maxKeywords {
		counts = counts[:maxKeywords]
	}
	return counts
}

// Stats is a summary of a learner's journal.
type Stats struct {
	Total          int      `json:"total"`
	ThisWeek       int      `json:"this_week"`
	AverageRating  *float64 `json:"average_rating,omitempty"`
	LessonsCovered int      `json:"lessons_covered"`
	Streak         int      `json:"streak"`
}

// Summarize computes journal statistics as of now.
func Summarize(entries []Entry, now time.Time) Stats {
	s := Stats{
		Total:  len(entries),
		Streak: Streak(entries, now),
	}
	if len(entries) == 0 {
		return s
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	lessons := make(map[LessonID]bool)
	sum := 0
	for _, e := range entries {
		if !e.Date.Before(weekAgo) {
			s.ThisWeek++
		}
		lessons[e.LessonID] = true
		sum += e.Rating
	}
	avg := math.Round(float64(sum)/float64(len(entries))*10) / 10
	s.AverageRating = &avg
	s.LessonsCovered = len(lessons)
	return s
}

// Growth summary messages.
const (
	GrowthHabit        = "building a steady reflection habit"
	GrowthInvesting    = "actively reflecting on investment decisions"
	GrowthSatisfaction = "keeping learning satisfaction high"
	GrowthStreak       = "reached a multi-day reflection streak"

	ImproveMoreEntries = "build up more reflection entries"
	ImproveConcepts    = "use a wider range of economic concepts"
	ImproveWouldChange = "make a habit of noting what you would change"
)

// Growth is a short whole-journal summary of strengths and improvement
// points.
type Growth struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// GrowthSummary derives the journal-level growth summary from the history,
// its streak and its extracted keywords.
func GrowthSummary(entries []Entry, streak int, keywords []KeywordCount) Growth {
	g := Growth{Strengths: []string{}, Improvements: []string{}}
	if len(entries) == 0 {
		return g
	}

	var decisions, highRated, wouldChange int
	for i := range entries {
		inv := entries[i].investment()
		if inv.Decision != "" {
			decisions++
		}
		if inv.WouldChange != "" {
			wouldChange++
		}
		if entries[i].Rating >= 4 {
			highRated++
		}
	}
	half := float64(len(entries)) / 2

	if len(entries) >= 3 {
		g.Strengths = append(g.Strengths, GrowthHabit)
	}
	if decisions > 2 {
		g.Strengths = append(g.Strengths, GrowthInvesting)
	}
	if float64(highRated) > half {
		g.Strengths = append(g.Strengths, GrowthSatisfaction)
	}
	if streak >= 3 {
		g.Strengths = append(g.Strengths, GrowthStreak)
	}

	if len(entries) < 5 {
		g.Improvements = append(g.Improvements, ImproveMoreEntries)
	}
	if len(keywords) < 5 {
		g.Improvements = append(g.Improvements, ImproveConcepts)
	}
	if float64(wouldChange) < half {
		g.Improvements = append(g.Improvements, ImproveWouldChange)
	}
	return g
}
