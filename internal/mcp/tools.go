package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var userParam = mcp.WithString("user",
	mcp.Required(),
	mcp.Description("Opaque learner identifier that owns the journal"),
)

var writeToolDef = mcp.NewTool("reflection_write",
	mcp.WithDescription(
		"Record a learning reflection for a lesson. Feedback (scores, strengths, "+
			"improvements, related concepts) is generated and stored with the entry.",
	),
	userParam,
	mcp.WithString("lesson_id",
		mcp.Description("Lesson the reflection belongs to; unknown values are stored as 'general'"),
		mcp.Enum("lesson-1", "lesson-2", "lesson-3", "lesson-4", "general"),
	),
	mcp.WithString("what_learned",
		mcp.Required(),
		mcp.Description("What was the most important thing you learned today?"),
	),
	mcp.WithString("what_difficult", mcp.Description("What was difficult or worth exploring further?")),
	mcp.WithString("how_apply", mcp.Description("How could this apply to real investing?")),
	mcp.WithString("next_goal", mcp.Description("Goal for the next lesson")),
	mcp.WithString("decision", mcp.Description("Optional investment decision (buy / sell / hold)")),
	mcp.WithString("reasoning", mcp.Description("Why the decision was made")),
	mcp.WithString("outcome", mcp.Description("How it turned out or what is expected")),
	mcp.WithString("would_change", mcp.Description("What would be done differently")),
	mcp.WithNumber("rating",
		mcp.Description("Self rating 1-5 (default 3)"),
		mcp.Min(1),
		mcp.Max(5),
	),
	mcp.WithReadOnlyHintAnnotation(false),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithIdempotentHintAnnotation(false),
	mcp.WithOpenWorldHintAnnotation(false),
)

var fetchToolDef = mcp.NewTool("reflection_fetch",
	mcp.WithDescription("Fetch one journal entry with its feedback and lesson title."),
	userParam,
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var listToolDef = mcp.NewTool("reflection_list",
	mcp.WithDescription("List a learner's journal entries, newest first."),
	userParam,
	mcp.WithString("lesson",
		mcp.Description("Lesson filter: 'all' (default) or a lesson id"),
		mcp.Enum("all", "lesson-1", "lesson-2", "lesson-3", "lesson-4", "general"),
	),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Entries to skip (default 0)")),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var regenerateToolDef = mcp.NewTool("reflection_regenerate",
	mcp.WithDescription("Generate fresh feedback for an existing entry, replacing the stored feedback."),
	userParam,
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	mcp.WithReadOnlyHintAnnotation(false),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(false),
	mcp.WithOpenWorldHintAnnotation(false),
)

var deleteToolDef = mcp.NewTool("reflection_delete",
	mcp.WithDescription("Permanently delete one journal entry."),
	userParam,
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	mcp.WithReadOnlyHintAnnotation(false),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var insightsToolDef = mcp.NewTool("reflection_insights",
	mcp.WithDescription(
		"Summarize a learner's journal: stats, consecutive-day streak, trend insights, "+
			"top keywords and a growth summary.",
	),
	userParam,
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(false),
)

var exportToolDef = mcp.NewTool("reflection_export",
	mcp.WithDescription("Export a learner's journal to a JSONL file (default ~/.sprout/exports)."),
	userParam,
	mcp.WithString("path", mcp.Description("Destination .jsonl path inside an allowed directory")),
	mcp.WithReadOnlyHintAnnotation(false),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithIdempotentHintAnnotation(false),
	mcp.WithOpenWorldHintAnnotation(false),
)

var importToolDef = mcp.NewTool("reflection_import",
	mcp.WithDescription(
		"Import entries from a JSONL export or a legacy JSON array. Entries without "+
			"feedback get it generated.",
	),
	userParam,
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl or .json path")),
	mcp.WithString("mode",
		mcp.Description("'merge' (default) skips ids already stored; 'replace' replaces the whole journal"),
		mcp.Enum("merge", "replace"),
	),
	mcp.WithReadOnlyHintAnnotation(false),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(false),
	mcp.WithOpenWorldHintAnnotation(false),
)
