package ops

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/metrics"
	"github.com/hpungsan/sprout/internal/reflection"
)

// MaxImportBytes bounds the size of an import file.
const MaxImportBytes = 16 << 20

// ImportMode controls how imported entries combine with the stored journal.
type ImportMode string

const (
	ImportModeMerge   ImportMode = "merge"   // default: add entries whose id is not stored yet
	ImportModeReplace ImportMode = "replace" // replace the whole journal
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	User string     // required
	Path string     // required; .jsonl export or legacy .json array
	Mode ImportMode // default: merge
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported          int           `json:"imported"`
	Skipped           int           `json:"skipped"`
	FeedbackGenerated int           `json:"feedback_generated"`
	Version           int64         `json:"version"`
	Errors            []ImportError `json:"errors"`
}

// ImportError represents a record that could not be imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads entries from an export file into a user's journal. Every
// record goes through the lenient decoder, entries without feedback get it
// generated, and the result is stored newest first.
func Import(ctx context.Context, repo reflection.Repository, gen FeedbackGenerator, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}
	if input.Mode == "" {
		input.Mode = ImportModeMerge
	}
	if input.Mode != ImportModeMerge && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: merge, replace")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.SproutError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewFileTooLarge(MaxImportBytes, int64(len(data)))
	}

	var (
		records     []reflection.Entry
		parseErrors []ImportError
	)
	if filepath.Ext(input.Path) == ".json" {
		records, err = reflection.DecodeEntries(data)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid legacy journal: %v", err))
		}
	} else {
		records, parseErrors = parseExportFile(data)
	}

	records, prepErrors := prepareRecords(records)
	parseErrors = append(parseErrors, prepErrors...)

	var imported, skipped int
	var generated []reflection.Entry
	j, err := mutate(ctx, repo, cfg, user, func(entries []reflection.Entry) ([]reflection.Entry, error) {
		imported, skipped, generated = 0, 0, nil
		if input.Mode == ImportModeReplace {
			entries = entries[:0]
		}

		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			seen[e.ID] = true
		}
		for _, r := range records {
			if seen[r.ID] {
				skipped++
				continue
			}
			if r.Feedback == nil {
				fb := gen.Generate(r)
				r.Feedback = &fb
				generated = append(generated, r)
			}
			entries = append(entries, r)
			imported++
		}

		sortNewestFirst(entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	for _, e := range generated {
		fb := e.Feedback
		m.RecordFeedback(string(e.LessonID.Resolve()), "import", fb.Score.Depth, fb.Score.Application, fb.Score.SelfAwareness)
	}
	m.EntriesImported.WithLabelValues("imported").Add(float64(imported))
	m.EntriesImported.WithLabelValues("skipped").Add(float64(skipped + len(parseErrors)))

	if parseErrors == nil {
		parseErrors = []ImportError{}
	}
	return &ImportOutput{
		Imported:          imported,
		Skipped:           skipped + len(parseErrors),
		FeedbackGenerated: len(generated),
		Version:           j.Version,
		Errors:            parseErrors,
	}, nil
}

// parseExportFile parses a JSONL export into entries. The header line and
// blank lines are skipped; undecodable lines are reported, not fatal.
func parseExportFile(data []byte) ([]reflection.Entry, []ImportError) {
	var records []reflection.Entry
	var parseErrors []ImportError

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxImportBytes)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if isExportHeader(line) {
			continue
		}

		e, err := reflection.DecodeEntry(line)
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		records = append(records, e)
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// isExportHeader reports whether line is the header written by Export.
func isExportHeader(line []byte) bool {
	var h struct {
		SproutExport bool `json:"_sprout_export"`
	}
	return json.Unmarshal(line, &h) == nil && h.SproutExport
}

// prepareRecords assigns ids to entries that lack one and drops repeated ids
// within the file.
func prepareRecords(records []reflection.Entry) ([]reflection.Entry, []ImportError) {
	out := make([]reflection.Entry, 0, len(records))
	seen := make(map[string]bool, len(records))
	var errs []ImportError

	for _, r := range records {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			ts := r.Date
			if ts.IsZero() {
				ts = time.Now()
			}
			id, err := generateULID(ts)
			if err != nil {
				errs = append(errs, ImportError{Code: "ID_FAILED", Message: err.Error()})
				continue
			}
			r.ID = id
		}
		if seen[r.ID] {
			errs = append(errs, ImportError{
				ID:      r.ID,
				Code:    "DUPLICATE_ID",
				Message: fmt.Sprintf("entry %q appears more than once", r.ID),
			})
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}

	return out, errs
}
