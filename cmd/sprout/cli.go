package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/db"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/ops"
	"github.com/hpungsan/sprout/internal/reflection"
	"github.com/hpungsan/sprout/internal/web"
)

// maxStdinBytes bounds a piped write request.
const maxStdinBytes = 1 << 20

// writeRequest is the JSON shape accepted on stdin by `sprout write`.
type writeRequest struct {
	User                 string                           `json:"user"`
	LessonID             string                           `json:"lessonId"`
	Questions            reflection.Questions             `json:"questions"`
	InvestmentReflection *reflection.InvestmentReflection `json:"investmentReflection"`
	Rating               int                              `json:"rating"`
}

// lessonInfo is one row of `sprout lessons`.
type lessonInfo struct {
	ID    reflection.LessonID `json:"id"`
	Title string              `json:"title"`
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *db.Store, gen ops.FeedbackGenerator, cfg *config.Config, logger *zap.Logger) *cli.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &cli.App{
		Name:    "sprout",
		Usage:   "Reflection journal for student investors",
		Version: Version,
		Commands: []*cli.Command{
			writeCmd(store, gen, cfg),
			fetchCmd(store),
			listCmd(store),
			regenerateCmd(store, gen, cfg),
			deleteCmd(store, cfg),
			insightsCmd(store, cfg),
			exportCmd(store, cfg),
			importCmd(store, gen, cfg),
			lessonsCmd(),
			usersCmd(store),
			serveCmd(store, gen, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func userFlag() cli.Flag {
	return &cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Student id"}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{Name: "id", Usage: "Entry id"}
}

// writeCmd creates the write command.
func writeCmd(store *db.Store, gen ops.FeedbackGenerator, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "write",
		Usage: "Write a reflection (JSON on stdin, or flags)",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "lesson", Aliases: []string{"l"}, Usage: "Lesson id (lesson-1..lesson-4, general)"},
			&cli.StringFlag{Name: "learned", Usage: "What was the most important thing you learned?"},
			&cli.StringFlag{Name: "difficult", Usage: "What was difficult?"},
			&cli.StringFlag{Name: "apply", Usage: "How could you apply it?"},
			&cli.StringFlag{Name: "goal", Usage: "Next learning goal"},
			&cli.StringFlag{Name: "decision", Usage: "Investment decision"},
			&cli.StringFlag{Name: "reasoning", Usage: "Reasoning behind the decision"},
			&cli.StringFlag{Name: "outcome", Usage: "Outcome of the decision"},
			&cli.StringFlag{Name: "would-change", Usage: "What you would do differently"},
			&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Self rating 1-5 (default 3)"},
		},
		Action: func(c *cli.Context) error {
			var req writeRequest
			if c.String("learned") == "" && stdinHasData() {
				data, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				if data != "" {
					if err := json.Unmarshal([]byte(data), &req); err != nil {
						return outputError(errors.NewInvalidRequest("invalid JSON on stdin: " + err.Error()))
					}
				}
			}
			applyWriteFlags(c, &req)

			result, err := ops.Write(c.Context, store, gen, cfg, ops.WriteInput{
				User:                 req.User,
				LessonID:             req.LessonID,
				Questions:            req.Questions,
				InvestmentReflection: req.InvestmentReflection,
				Rating:               req.Rating,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// applyWriteFlags overlays explicitly set flags onto req.
func applyWriteFlags(c *cli.Context, req *writeRequest) {
	set := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	set("user", &req.User)
	set("lesson", &req.LessonID)
	set("learned", &req.Questions.WhatLearned)
	set("difficult", &req.Questions.WhatDifficult)
	set("apply", &req.Questions.HowApply)
	set("goal", &req.Questions.NextGoal)

	if c.IsSet("decision") || c.IsSet("reasoning") || c.IsSet("outcome") || c.IsSet("would-change") {
		if req.InvestmentReflection == nil {
			req.InvestmentReflection = &reflection.InvestmentReflection{}
		}
		set("decision", &req.InvestmentReflection.Decision)
		set("reasoning", &req.InvestmentReflection.Reasoning)
		set("outcome", &req.InvestmentReflection.Outcome)
		set("would-change", &req.InvestmentReflection.WouldChange)
	}
	if c.IsSet("rating") {
		req.Rating = c.Int("rating")
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch a reflection by id",
		Flags: []cli.Flag{userFlag(), idFlag()},
		Action: func(c *cli.Context) error {
			result, err := ops.Fetch(c.Context, store, ops.FetchInput{
				User: c.String("user"),
				ID:   c.String("id"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// listCmd creates the list command.
func listCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List a student's reflections, newest first",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "lesson", Aliases: []string{"l"}, Usage: "Lesson id filter, or \"all\""},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Max items to return"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.List(c.Context, store, ops.ListInput{
				User:   c.String("user"),
				Lesson: c.String("lesson"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// regenerateCmd creates the regenerate command.
func regenerateCmd(store *db.Store, gen ops.FeedbackGenerator, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "regenerate",
		Usage: "Replace the feedback of a reflection",
		Flags: []cli.Flag{userFlag(), idFlag()},
		Action: func(c *cli.Context) error {
			result, err := ops.Regenerate(c.Context, store, gen, cfg, ops.RegenerateInput{
				User: c.String("user"),
				ID:   c.String("id"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a reflection",
		Flags: []cli.Flag{userFlag(), idFlag()},
		Action: func(c *cli.Context) error {
			result, err := ops.Delete(c.Context, store, cfg, ops.DeleteInput{
				User: c.String("user"),
				ID:   c.String("id"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// insightsCmd creates the insights command.
func insightsCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "insights",
		Usage: "Show streak, trends and keywords",
		Flags: []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			result, err := ops.Insights(c.Context, store, ops.InsightsInput{
				User:     c.String("user"),
				Location: cfg.Location(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a journal to JSONL",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.sprout/exports/<user>-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Export(c.Context, store, cfg, ops.ExportInput{
				User: c.String("user"),
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// importCmd creates the import command.
func importCmd(store *db.Store, gen ops.FeedbackGenerator, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a journal from a JSONL export or legacy JSON array",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "merge", Usage: "Import mode: merge|replace"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Import(c.Context, store, gen, cfg, ops.ImportInput{
				User: c.String("user"),
				Path: c.String("path"),
				Mode: ops.ImportMode(strings.ToLower(c.String("mode"))),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// lessonsCmd creates the lessons command.
func lessonsCmd() *cli.Command {
	return &cli.Command{
		Name:  "lessons",
		Usage: "List lessons and reflection prompts",
		Action: func(_ *cli.Context) error {
			lessons := make([]lessonInfo, 0, len(reflection.Lessons))
			for _, id := range reflection.Lessons {
				lessons = append(lessons, lessonInfo{ID: id, Title: reflection.LessonTitle(id)})
			}
			return outputJSON(map[string]any{
				"lessons":            lessons,
				"question_prompts":   reflection.QuestionPrompts,
				"investment_prompts": reflection.InvestmentPrompts,
			})
		},
	}
}

// usersCmd creates the users command.
func usersCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "List students with a stored journal",
		Action: func(c *cli.Context) error {
			users, err := store.Users(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"users": users})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(store *db.Store, gen ops.FeedbackGenerator, cfg *config.Config, logger *zap.Logger) *cli.Command {
	bind, port := "127.0.0.1", 8421
	if cfg != nil {
		bind, port = cfg.WebBind, cfg.WebPort
	}
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the journal web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: bind, Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: port, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(store, gen, cfg, logger, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv, logger)
		},
	}
}

// outputJSON writes JSON output to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	sErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}
