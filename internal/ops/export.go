package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/sprout/internal/config"
	"github.com/hpungsan/sprout/internal/errors"
	"github.com/hpungsan/sprout/internal/reflection"
)

// ExportSchemaVersion is written in every export header.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	User string // required
	Path string // optional, default: ~/.sprout/exports/<user>-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	Version    int64  `json:"version"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	SproutExport  bool   `json:"_sprout_export"`
	SchemaVersion string `json:"schema_version"`
	User          string `json:"user"`
	Version       int64  `json:"version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes a user's journal to a JSONL file: one header line, then one
// entry per line in stored (newest-first) order.
func Export(ctx context.Context, repo reflection.Repository, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	user, err := ValidateUser(input.User)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exportedAt := now.Unix()

	// Determine export path
	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(user, now)
		if err != nil {
			return nil, err
		}
	}

	// Validate ALL paths (both user-provided and default) for security
	// This catches user-id injection in default paths
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	// Snapshot the journal before touching the filesystem
	j, err := repo.LoadAll(ctx, user)
	if err != nil {
		return nil, err
	}

	header := ExportHeader{
		SproutExport:  true,
		SchemaVersion: ExportSchemaVersion,
		User:          user,
		Version:       j.Version,
		ExportedAt:    exportedAt,
	}
	count := 0
	err = writeAtomic(exportPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(header); err != nil {
			return err
		}
		for _, e := range j.Entries {
			if ctx.Err() != nil {
				return errors.NewCancelled("export")
			}
			if err := enc.Encode(e); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		Version:    j.Version,
		ExportedAt: exportedAt,
	}, nil
}

// writeAtomic writes path through a random temp file in the same directory
// and renames it into place, so a failed export never clobbers an older file.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(suffix) + ".tmp"

	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}
	defer func() {
		if file != nil {
			file.Close()
		}
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	buf := bufio.NewWriter(file)
	if err := write(buf); err != nil {
		if errors.As(err).Code != errors.ErrInternal {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to write export: %w", err))
	}
	if err := buf.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Windows refuses to rename an open file.
	closeErr := file.Close()
	file = nil
	if closeErr != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", closeErr))
	}

	// os.Rename would follow a symlinked destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path must not be a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		// Windows cannot rename over an existing file. Keep the old export
		// rather than delete it first.
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	return nil
}

// defaultExportPath generates the default export path.
// Format: ~/.sprout/exports/<user>-<timestamp>.jsonl
func defaultExportPath(user string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}

	// Sanitize to prevent path traversal/injection via malicious user ids
	filename := fmt.Sprintf("%s-%s.jsonl", SanitizeForFilename(user), now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
