package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/ops"
	"github.com/hpungsan/sprout/internal/reflection"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	repo   reflection.Repository
	gen    ops.FeedbackGenerator
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance. A nil cfg means defaults and
// a nil logger discards output.
func NewHandlers(repo reflection.Repository, gen ops.FeedbackGenerator, cfg *config.Config, logger *zap.Logger) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{repo: repo, gen: gen, cfg: cfg, logger: logger.Named("mcp")}
}

// Request types for each tool

// WriteRequest represents the arguments for reflection_write.
type WriteRequest struct {
	User          string `json:"user"`
	LessonID      string `json:"lesson_id,omitempty"`
	WhatLearned   string `json:"what_learned"`
	WhatDifficult string `json:"what_difficult,omitempty"`
	HowApply      string `json:"how_apply,omitempty"`
	NextGoal      string `json:"next_goal,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Reasoning     string `json:"reasoning,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	WouldChange   string `json:"would_change,omitempty"`
	Rating        int    `json:"rating,omitempty"`
}

// EntryRequest addresses one entry; used by fetch, regenerate and delete.
type EntryRequest struct {
	User string `json:"user"`
	ID   string `json:"id"`
}

// ListRequest represents the arguments for reflection_list.
type ListRequest struct {
	User   string `json:"user"`
	Lesson string `json:"lesson,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// InsightsRequest represents the arguments for reflection_insights.
type InsightsRequest struct {
	User string `json:"user"`
}

// ExportRequest represents the arguments for reflection_export.
type ExportRequest struct {
	User string `json:"user"`
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for reflection_import.
type ImportRequest struct {
	User string `json:"user"`
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleWrite handles the reflection_write tool call.
func (h *Handlers) HandleWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WriteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var investment *reflection.InvestmentReflection
	if input.Decision != "" || input.Reasoning != "" || input.Outcome != "" || input.WouldChange != "" {
		investment = &reflection.InvestmentReflection{
			Decision:    input.Decision,
			Reasoning:   input.Reasoning,
			Outcome:     input.Outcome,
			WouldChange: input.WouldChange,
		}
	}

	result, err := ops.Write(ctx, h.repo, h.gen, h.cfg, ops.WriteInput{
		User:     input.User,
		LessonID: input.LessonID,
		Questions: reflection.Questions{
			WhatLearned:   input.WhatLearned,
			WhatDifficult: input.WhatDifficult,
			HowApply:      input.HowApply,
			NextGoal:      input.NextGoal,
		},
		InvestmentReflection: investment,
		Rating:               input.Rating,
	})
	if err != nil {
		return h.fail("reflection_write", err), nil
	}

	return successResult(result)
}

// HandleFetch handles the reflection_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.repo, ops.FetchInput{User: input.User, ID: input.ID})
	if err != nil {
		return h.fail("reflection_fetch", err), nil
	}

	return successResult(result)
}

// HandleList handles the reflection_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.repo, ops.ListInput{
		User:   input.User,
		Lesson: input.Lesson,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return h.fail("reflection_list", err), nil
	}

	return successResult(result)
}

// HandleRegenerate handles the reflection_regenerate tool call.
func (h *Handlers) HandleRegenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Regenerate(ctx, h.repo, h.gen, h.cfg, ops.RegenerateInput{User: input.User, ID: input.ID})
	if err != nil {
		return h.fail("reflection_regenerate", err), nil
	}

	return successResult(result)
}

// HandleDelete handles the reflection_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EntryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.repo, h.cfg, ops.DeleteInput{User: input.User, ID: input.ID})
	if err != nil {
		return h.fail("reflection_delete", err), nil
	}

	return successResult(result)
}

// HandleInsights handles the reflection_insights tool call.
func (h *Handlers) HandleInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InsightsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Insights(ctx, h.repo, ops.InsightsInput{
		User:     input.User,
		Location: h.cfg.Location(),
	})
	if err != nil {
		return h.fail("reflection_insights", err), nil
	}

	return successResult(result)
}

// HandleExport handles the reflection_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.repo, h.cfg, ops.ExportInput{User: input.User, Path: input.Path})
	if err != nil {
		return h.fail("reflection_export", err), nil
	}

	return successResult(result)
}

// HandleImport handles the reflection_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.repo, h.gen, h.cfg, ops.ImportInput{
		User: input.User,
		Path: input.Path,
		Mode: ops.ImportMode(strings.ToLower(strings.TrimSpace(input.Mode))),
	})
	if err != nil {
		return h.fail("reflection_import", err), nil
	}

	return successResult(result)
}

// Result helpers

// fail logs unexpected failures and converts err into an error result.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	if errors.As(err).Code == errors.ErrInternal {
		h.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking file paths or SQL.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	sErr := errors.As(err)
	if sErr.Code != errors.ErrInternal {
		message := sErr.Message
		// Keep any context added by wrapping
		if full := err.Error(); full != sErr.Error() {
			message = strings.TrimSuffix(full, sErr.Error()) + sErr.Message
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
