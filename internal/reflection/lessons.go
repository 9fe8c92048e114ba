package reflection

// lessonTitles maps each lesson to its curriculum title.
var lessonTitles = map[LessonID]string{
	Lesson1:       "Lesson 1: Understanding the stock market and finding information",
	Lesson2:       "Lesson 2: Investment decisions and opportunity cost",
	Lesson3:       "Lesson 3: Portfolios and spreading risk",
	Lesson4:       "Lesson 4: Analysing results and economic reflection",
	LessonGeneral: "General reflection",
}

// LessonTitle returns the display title for id. Unknown ids get the
// general title.
func LessonTitle(id LessonID) string {
	return lessonTitles[id.Resolve()]
}

// Prompt is a question shown to the learner for one answer field.
type Prompt struct {
	Field    string `json:"field"`
	Question string `json:"question"`
}

// QuestionPrompts are the four required reflection questions.
var QuestionPrompts = []Prompt{
	{Field: "whatLearned", Question: "What was the most important thing you learned today?"},
	{Field: "whatDifficult", Question: "Was anything difficult, or is there something you want to know more about?"},
	{Field: "howApply", Question: "How could you apply what you learned to real investing?"},
	{Field: "nextGoal", Question: "What do you want to achieve in the next lesson?"},
}

// InvestmentPrompts are the optional trading-decision questions.
var InvestmentPrompts = []Prompt{
	{Field: "decision", Question: "What investment decision did you make? (buy / sell / hold)"},
	{Field: "reasoning", Question: "Why did you make that decision?"},
	{Field: "outcome", Question: "How did it turn out? (or what do you expect?)"},
	{Field: "wouldChange", Question: "If you decided again, what would you change?"},
}

// encouragements holds three messages per lesson. Every LessonID has a pool;
// LessonGeneral doubles as the fallback.
var encouragements = map[LessonID][]string{
	Lesson1: {
		"You are building a solid grasp of how the stock market works! 🎯",
		"Your skill at finding information keeps improving! 📊",
		"You are learning to read the market more clearly! 👀",
	},
	Lesson2: {
		"Your understanding of the decision process is getting deeper! 🤔",
		"You are applying opportunity cost really well! 💡",
		"You have taken the first step toward rational decisions! 🚀",
	},
	Lesson3: {
		"You are getting a real feel for why spreading risk matters! 🛡️",
		"Your portfolio thinking is developing! 📈",
		"You are growing into a wise investor! 🌟",
	},
	Lesson4: {
		"This is a thorough analysis of your results! 🏆",
		"You are turning investing experience into wisdom! 💎",
		"Your economic thinking has improved a lot! 🎓",
	},
	LessonGeneral: {
		"Steady reflection builds real skill! 💪",
		"You are growing a little every day! 🌱",
		"You are building great investing habits! ⭐",
	},
}

// EncouragementPool returns the encouragement messages for id.
func EncouragementPool(id LessonID) []string {
	return encouragements[id.Resolve()]
}

// GrowthTips is the fixed pool of generic growth tips.
var GrowthTips = []string{
	"Read one piece of economic news every day.",
	"Keep an investment diary and you will start to notice patterns.",
	"Look at the strategies other students are using.",
	"Set rules in advance to cut down on emotional trades.",
	"Losses are a chance to learn too.",
	"Try an experiment to see the effect of diversification yourself.",
	"Experience the difference between long-term and short-term investing.",
}

// ScoreBand classifies a score for display: good, fair or low.
func ScoreBand(score int) string {
	switch {
	case score >= 70:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "low"
	}
}
