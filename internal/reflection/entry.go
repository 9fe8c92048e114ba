package reflection

import (
	"context"
	"time"
)

// LessonID identifies the lesson a journal entry belongs to.
type LessonID string

const (
	Lesson1       LessonID = "lesson-1"
	Lesson2       LessonID = "lesson-2"
	Lesson3       LessonID = "lesson-3"
	Lesson4       LessonID = "lesson-4"
	LessonGeneral LessonID = "general"
)

// Lessons lists the known lesson ids in curriculum order.
var Lessons = []LessonID{Lesson1, Lesson2, Lesson3, Lesson4, LessonGeneral}

// Known reports whether id is one of the closed set of lesson ids.
func (id LessonID) Known() bool {
	switch id {
	case Lesson1, Lesson2, Lesson3, Lesson4, LessonGeneral:
		return true
	}
	return false
}

// Resolve returns id, or LessonGeneral when id is not a known lesson.
func (id LessonID) Resolve() LessonID {
	if id.Known() {
		return id
	}
	return LessonGeneral
}

// Questions holds the four required reflection answers.
type Questions struct {
	WhatLearned   string `json:"whatLearned"`
	WhatDifficult string `json:"whatDifficult"`
	HowApply      string `json:"howApply"`
	NextGoal      string `json:"nextGoal"`
}

// InvestmentReflection is the optional trading-decision part of an entry.
type InvestmentReflection struct {
	Decision    string `json:"decision"`
	Reasoning   string `json:"reasoning"`
	Outcome     string `json:"outcome"`
	WouldChange string `json:"wouldChange"`
}

// Entry is one journal record a learner submits.
// ID and Date are assigned at creation and never change afterwards.
type Entry struct {
	ID                   string                `json:"id"`
	LessonID             LessonID              `json:"lessonId"`
	Date                 time.Time             `json:"date"`
	Questions            Questions             `json:"questions"`
	InvestmentReflection *InvestmentReflection `json:"investmentReflection,omitempty"`
	Rating               int                   `json:"rating"`
	Feedback             *Feedback             `json:"aiFeedback,omitempty"`
}

// investment returns the investment reflection or a zero value, never nil.
func (e *Entry) investment() InvestmentReflection {
	if e.InvestmentReflection == nil {
		return InvestmentReflection{}
	}
	return *e.InvestmentReflection
}

// Score holds the three feedback scores, each in [0,100].
type Score struct {
	Depth         int `json:"depth"`
	Application   int `json:"application"`
	SelfAwareness int `json:"selfAwareness"`
}

// Feedback is the analysis report attached to exactly one entry.
type Feedback struct {
	Strengths       []string `json:"strengths"`
	Suggestions     []string `json:"suggestions"`
	RelatedConcepts []string `json:"relatedConcepts"`
	Encouragement   string   `json:"encouragement"`
	GrowthTip       string   `json:"growthTip"`
	Score           Score    `json:"score"`
}

// Trend classifies a recent window against an older one.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Insight is one trend measurement over a learner's history.
type Insight struct {
	Category    string  `json:"category"`
	Count       float64 `json:"count"`
	Trend       Trend   `json:"trend"`
	Description string  `json:"description"`
}

// KeywordCount is one row of the keyword frequency table.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Journal is a user's full entry collection as loaded from storage.
// Entries are newest-first. Version is 0 for a journal that was never saved.
type Journal struct {
	UserID  string  `json:"user"`
	Entries []Entry `json:"entries"`
	Version int64   `json:"version"`
}

// Repository loads and replaces a user's whole entry collection.
//
// SaveAll must fail with a CONFLICT error when the stored version differs
// from expectedVersion, and returns the new version on success.
type Repository interface {
	LoadAll(ctx context.Context, userID string) (*Journal, error)
	SaveAll(ctx context.Context, userID string, entries []Entry, expectedVersion int64) (int64, error)
}
