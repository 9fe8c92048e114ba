package reflection

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"
)

// Strength messages, in evaluation order.
const (
	StrengthDetailed     = "rich, detailed reflection"
	StrengthIntermediate = "good use of intermediate economic concepts"
	StrengthAdvanced     = "demonstrates advanced investing concepts"
	StrengthAnalytical   = "strong analytical thinking"
	StrengthEmotional    = "good emotional self-awareness"
	StrengthApplication  = "concrete application plan"
	StrengthNextGoal     = "clear next goal"
	StrengthReasoning    = "logical investment reasoning"
	StrengthDefault      = "maintaining a consistent reflection habit."
)

// Suggestion messages, in evaluation order.
const (
	SuggestMoreDetail  = "write more detail"
	SuggestConcepts    = "try using concepts learned (e.g. diversification, opportunity cost)"
	SuggestData        = "try referencing data or charts"
	SuggestApplication = "think more about real application"
	SuggestWouldChange = "identifying what you'd change is valuable"
	SuggestEmotions    = "record the emotions felt while investing"
	SuggestDefault     = "keep up the consistent reflection."
)

const (
	maxListItems       = 3
	maxRelatedConcepts = 5
)

// Generator produces feedback reports. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng. A nil rng uses a
// randomly seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng}
}

// NewSeededGenerator returns a Generator with a deterministic source.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed)))
}

// pick returns a uniformly chosen element of pool.
func (g *Generator) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return pool[g.rng.IntN(len(pool))]
}

// Generate analyses e and returns its feedback report. It never fails;
// empty fields count as empty strings.
func (g *Generator) Generate(e Entry) Feedback {
	q := e.Questions
	inv := e.investment()

	corpus := strings.ToLower(strings.Join([]string{
		q.WhatLearned, q.WhatDifficult, q.HowApply, q.NextGoal, inv.Decision, inv.Reasoning,
	}, " "))

	wordCount := countWords(corpus)

	intermediate := matchTable(intermediateMatchers, corpus)
	advanced := matchTable(advancedMatchers, corpus)
	analyticalCount := len(matchTable(analyticalMatchers, corpus))
	emotionalCount := len(matchTable(emotionalMatchers, corpus))

	howApplyLen := charLen(q.HowApply)
	nextGoalLen := charLen(q.NextGoal)

	strengths := firstMatching([]rule{
		{wordCount > 50, StrengthDetailed},
		{len(intermediate) > 2, StrengthIntermediate},
		{len(advanced) > 0, StrengthAdvanced},
		{analyticalCount > 1, StrengthAnalytical},
		{emotionalCount > 0, StrengthEmotional},
		{howApplyLen > 50, StrengthApplication},
		{nextGoalLen > 30, StrengthNextGoal},
		{charLen(inv.Reasoning) > 30, StrengthReasoning},
	}, StrengthDefault)

	suggestions := firstMatching([]rule{
		{wordCount < 30, SuggestMoreDetail},
		{len(intermediate) == 0, SuggestConcepts},
		{analyticalCount == 0, SuggestData},
		{howApplyLen < 20, SuggestApplication},
		{inv.WouldChange == "", SuggestWouldChange},
		{emotionalCount == 0, SuggestEmotions},
	}, SuggestDefault)

	application := 0.0
	application += float64(howApplyLen) / 100 * 50
	application += float64(nextGoalLen) / 50 * 30
	if inv.Decision != "" {
		application += 20
	}

	selfAwareness := float64(emotionalCount * 20)
	selfAwareness += float64(charLen(q.WhatDifficult)) / 50 * 30
	if inv.WouldChange != "" {
		selfAwareness += 30
	}
	if e.Rating != 0 {
		selfAwareness += 20
	}

	return Feedback{
		Strengths:       strengths,
		Suggestions:     suggestions,
		RelatedConcepts: dedupe(append(intermediate, advanced...), maxRelatedConcepts),
		Encouragement:   g.pick(EncouragementPool(e.LessonID)),
		GrowthTip:       g.pick(GrowthTips),
		Score: Score{
			Depth:         clampScore(float64(wordCount)),
			Application:   clampScore(application),
			SelfAwareness: clampScore(selfAwareness),
		},
	}
}

type rule struct {
	ok  bool
	msg string
}

// firstMatching keeps the messages of the first three true rules, or def.
func firstMatching(rules []rule, def string) []string {
	var out []string
	for _, r := range rules {
		if r.ok {
			out = append(out, r.msg)
			if len(out) == maxListItems {
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{def}
	}
	return out
}

// countWords counts whitespace-separated tokens longer than one character.
func countWords(s string) int {
	n := 0
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) > 1 {
			n++
		}
	}
	return n
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}

func clampScore(v float64) int {
	r := int(math.Round(v))
	return max(0, min(100, r))
}

func dedupe(words []string, limit int) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, min(len(words), limit))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}
