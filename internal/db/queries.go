package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/reflection"
)

// Store is the SQLite-backed reflection.Repository.
//
// A user's journal is a versioned row in journals plus its entries, kept in
// the caller's order through the position column.
type Store struct {
	db *sql.DB
}

var _ reflection.Repository = (*Store)(nil)

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadAll reads the whole journal for userID. A user with no journal yet gets
// an empty one at version 0.
func (s *Store) LoadAll(ctx context.Context, userID string) (*reflection.Journal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(ctx, "load", err)
	}
	defer func() { _ = tx.Rollback() }()

	j := &reflection.Journal{UserID: userID, Entries: []reflection.Entry{}}

	err = tx.QueryRowContext(ctx, `SELECT version FROM journals WHERE user_id = ?`, userID).Scan(&j.Version)
	if err == sql.ErrNoRows {
		return j, nil
	}
	if err != nil {
		return nil, wrapErr(ctx, "load", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, lesson_id, created_at, what_learned, what_difficult,
			how_apply, next_goal, investment_json, rating, feedback_json
		FROM entries
		WHERE user_id = ?
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, wrapErr(ctx, "load", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		j.Entries = append(j.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, "load", err)
	}

	return j, nil
}

// SaveAll replaces the journal's entries if its stored version still equals
// expectedVersion, and returns the new version. A mismatch yields CONFLICT and
// leaves the stored journal untouched.
func (s *Store) SaveAll(ctx context.Context, userID string, entries []reflection.Entry, expectedVersion int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr(ctx, "save", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()

	// The version check is the first statement so the write lock is taken
	// before anything is read.
	var res sql.Result
	if expectedVersion == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO journals (user_id, version, updated_at) VALUES (?, 1, ?)
			ON CONFLICT(user_id) DO NOTHING
		`, userID, now)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE journals SET version = version + 1, updated_at = ?
			WHERE user_id = ? AND version = ?
		`, now, userID, expectedVersion)
	}
	if err != nil {
		return 0, wrapErr(ctx, "save", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	if affected == 0 {
		var actual int64
		if err := tx.QueryRowContext(ctx, `SELECT version FROM journals WHERE user_id = ?`, userID).Scan(&actual); err != nil && err != sql.ErrNoRows {
			return 0, wrapErr(ctx, "save", err)
		}
		return 0, errors.NewConflict(userID, expectedVersion, actual)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE user_id = ?`, userID); err != nil {
		return 0, wrapErr(ctx, "save", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (
			user_id, id, position, lesson_id, created_at, what_learned,
			what_difficult, how_apply, next_goal, investment_json, rating, feedback_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, wrapErr(ctx, "save", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		investment, err := toNullJSON(e.InvestmentReflection)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		feedback, err := toNullJSON(e.Feedback)
		if err != nil {
			return 0, errors.NewInternal(err)
		}

		_, err = stmt.ExecContext(ctx,
			userID, e.ID, i, string(e.LessonID), e.Date.UnixMilli(), e.Questions.WhatLearned,
			e.Questions.WhatDifficult, e.Questions.HowApply, e.Questions.NextGoal, investment, e.Rating, feedback,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return 0, errors.NewInvalidRequest("duplicate entry id: " + e.ID)
			}
			return 0, wrapErr(ctx, "save", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapErr(ctx, "save", err)
	}

	return expectedVersion + 1, nil
}

// Users returns every user with a stored journal, ordered by most recent write.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM journals ORDER BY updated_at DESC, user_id`)
	if err != nil {
		return nil, wrapErr(ctx, "users", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, errors.NewInternal(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, "users", err)
	}
	return users, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapErr reports a cancelled context as CANCELLED and anything else as INTERNAL.
func wrapErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return errors.NewCancelled(op)
	}
	return errors.NewInternal(err)
}

// scanEntry scans a single row into an Entry.
func scanEntry(rows *sql.Rows) (reflection.Entry, error) {
	var (
		e          reflection.Entry
		lessonID   string
		createdAt  int64
		investment sql.NullString
		feedback   sql.NullString
	)

	err := rows.Scan(
		&e.ID, &lessonID, &createdAt, &e.Questions.WhatLearned, &e.Questions.WhatDifficult,
		&e.Questions.HowApply, &e.Questions.NextGoal, &investment, &e.Rating, &feedback,
	)
	if err != nil {
		return e, err
	}

	e.LessonID = reflection.LessonID(lessonID)
	e.Date = time.UnixMilli(createdAt).UTC()

	if investment.Valid && investment.String != "" {
		e.InvestmentReflection = &reflection.InvestmentReflection{}
		if err := json.Unmarshal([]byte(investment.String), e.InvestmentReflection); err != nil {
			return e, err
		}
	}
	if feedback.Valid && feedback.String != "" {
		e.Feedback = &reflection.Feedback{}
		if err := json.Unmarshal([]byte(feedback.String), e.Feedback); err != nil {
			return e, err
		}
	}

	return reflection.Normalize(e), nil
}

// toNullJSON marshals v into a nullable TEXT column, NULL for a nil pointer.
func toNullJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
