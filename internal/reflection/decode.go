package reflection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// rawEntry is the loosely-typed shape entries arrive in from storage or
// legacy exports. Every field may be missing.
type rawEntry struct {
	ID                   any                   `json:"id"`
	LessonID             string                `json:"lessonId"`
	Date                 any                   `json:"date"`
	Questions            Questions             `json:"questions"`
	InvestmentReflection *InvestmentReflection `json:"investmentReflection"`
	Rating               any                   `json:"rating"`
	Feedback             *Feedback             `json:"aiFeedback"`
}

// DecodeEntry decodes one stored entry, defaulting anything missing or
// malformed. Only syntactically invalid JSON is an error; a field of the
// wrong type is left at its zero value.
func DecodeEntry(data []byte) (Entry, error) {
	var raw rawEntry
	if err := unmarshalLenient(data, &raw); err != nil {
		return Entry{}, err
	}
	return raw.entry(), nil
}

// DecodeEntries decodes a JSON array of stored entries.
func DecodeEntries(data []byte) ([]Entry, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("expected a JSON array of entries")
	}
	var raws []rawEntry
	if err := unmarshalLenient(data, &raws); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(raws))
	for i, raw := range raws {
		entries[i] = raw.entry()
	}
	return entries, nil
}

func unmarshalLenient(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

func (r rawEntry) entry() Entry {
	lesson := LessonID(strings.TrimSpace(r.LessonID))
	if lesson == "" {
		lesson = LessonGeneral
	}
	return Normalize(Entry{
		ID:                   stringValue(r.ID),
		LessonID:             lesson,
		Date:                 timeValue(r.Date),
		Questions:            r.Questions,
		InvestmentReflection: r.InvestmentReflection,
		Rating:               intValue(r.Rating),
		Feedback:             r.Feedback,
	})
}

// DatePrecision is the resolution entry dates are stored at.
const DatePrecision = time.Millisecond

// Normalize applies the stored-entry invariants: date in UTC at
// DatePrecision, rating within 0..5 (0 means unrated), feedback scores
// clamped, feedback lists bounded.
func Normalize(e Entry) Entry {
	e.Date = e.Date.UTC().Truncate(DatePrecision)
	e.Rating = max(0, min(5, e.Rating))
	if e.Feedback != nil {
		f := *e.Feedback
		f.Score.Depth = max(0, min(100, f.Score.Depth))
		f.Score.Application = max(0, min(100, f.Score.Application))
		f.Score.SelfAwareness = max(0, min(100, f.Score.SelfAwareness))
		f.Strengths = orDefault(truncate(f.Strengths, maxListItems), StrengthDefault)
		f.Suggestions = orDefault(truncate(f.Suggestions, maxListItems), SuggestDefault)
		f.RelatedConcepts = dedupe(f.RelatedConcepts, maxRelatedConcepts)
		e.Feedback = &f
	}
	return e
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(s []string, def string) []string {
	if len(s) == 0 {
		return []string{def}
	}
	return s
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func intValue(v any) int {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int(math.Round(x))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// timeValue accepts an RFC 3339 string or Unix milliseconds.
func timeValue(v any) time.Time {
	switch x := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(x))
		if err != nil {
			return time.Time{}
		}
		return t
	case float64:
		return time.UnixMilli(int64(x)).UTC()
	default:
		return time.Time{}
	}
}

// UnmarshalJSON routes every decoded Entry through DecodeEntry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeEntry(data)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}
