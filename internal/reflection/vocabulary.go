package reflection

import "regexp"

// Vocabulary tables. Order matters: it fixes the order of related concepts
// and breaks keyword ties.
var (
	BasicWords        = []string{"주식", "가격", "매수", "매도", "투자", "수익", "손실", "거래"}
	IntermediateWords = []string{"분산투자", "포트폴리오", "리스크", "수익률", "기회비용", "PER", "PBR", "배당"}
	AdvancedWords     = []string{"변동성", "베타", "알파", "샤프비율", "헤지", "선물", "옵션", "레버리지"}
	EmotionalWords    = []string{"불안", "흥분", "후회", "만족", "자신감", "두려움", "조급함", "인내"}
	AnalyticalWords   = []string{"분석", "예측", "비교", "평가", "검토", "연구", "데이터", "차트"}
)

// matcher is a precompiled case-insensitive literal matcher for one word.
type matcher struct {
	word string
	re   *regexp.Regexp
}

// in reports whether the word occurs anywhere in text.
func (m matcher) in(text string) bool {
	return m.re.MatchString(text)
}

// count returns the number of non-overlapping occurrences in text.
func (m matcher) count(text string) int {
	return len(m.re.FindAllStringIndex(text, -1))
}

func compile(words []string) []matcher {
	out := make([]matcher, len(words))
	for i, w := range words {
		out[i] = matcher{word: w, re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(w))}
	}
	return out
}

var (
	basicMatchers        = compile(BasicWords)
	intermediateMatchers = compile(IntermediateWords)
	advancedMatchers     = compile(AdvancedWords)
	emotionalMatchers    = compile(EmotionalWords)
	analyticalMatchers   = compile(AnalyticalWords)

	// keywordMatchers is the keyword-extraction vocabulary: basic, then
	// intermediate, then advanced.
	keywordMatchers = concat(basicMatchers, intermediateMatchers, advancedMatchers)
)

func concat(lists ...[]matcher) []matcher {
	var out []matcher
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// matchTable returns the words of table that occur in text, in table order.
func matchTable(table []matcher, text string) []string {
	var found []string
	for _, m := range table {
		if m.in(text) {
			found = append(found, m.word)
		}
	}
	return found
}
