// Package storage resolves which directory backs the record store.
// Resolution runs exactly once at process startup; relocating the
// working directory mid-session has no effect until restart.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/entrhq/chronos/pkg/errors"
)

// Mode selects between one shared store and one store per project.
type Mode string

const (
	ModeCentralized Mode = "centralized"
	ModePerProject  Mode = "per-project"
)

// Environment variables consulted during resolution, in priority order.
const (
	EnvDataDir             = "MCP_DATA_DIR"
	EnvProjectRoot         = "MCP_PROJECT_ROOT"
	EnvProjectRootFallback = "PROJECT_ROOT"
)

// DataSubdir is the fixed subdirectory name used under a project root.
const DataSubdir = "chronos-data"

// DefaultDataDir is the shared-store default location.
const DefaultDataDir = "./chronos-data"

// ParseMode validates and normalizes a storage mode string. Underscores
// are accepted as separators and case is ignored.
func ParseMode(s string) (Mode, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch Mode(normalized) {
	case ModeCentralized:
		return ModeCentralized, nil
	case ModePerProject:
		return ModePerProject, nil
	default:
		return "", apperrors.NewValidationError(
			"invalid storage_mode %q: must be %q or %q", s, ModeCentralized, ModePerProject)
	}
}

// DetectProjectRoot picks the project root directory using the priority
// chain: explicit argument, MCP_PROJECT_ROOT, PROJECT_ROOT, then the
// current working directory. An explicit root that does not exist is an
// error; an invalid environment value only logs a warning and falls
// through to the next candidate.
func DetectProjectRoot(explicit string) (string, error) {
	if explicit != "" {
		root, err := filepath.Abs(explicit)
		if err != nil {
			return "", apperrors.NewValidationError("resolve project_root %q: %v", explicit, err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return "", apperrors.NewValidationError("specified project_root does not exist: %s", root)
		}
		if !info.IsDir() {
			return "", apperrors.NewValidationError("specified project_root is not a directory: %s", root)
		}
		slog.Info("using explicit project root", "root", root)
		return root, nil
	}

	for _, env := range []string{EnvProjectRoot, EnvProjectRootFallback} {
		value := os.Getenv(env)
		if value == "" {
			continue
		}
		root, err := filepath.Abs(value)
		if err == nil {
			if info, statErr := os.Stat(root); statErr == nil && info.IsDir() {
				slog.Info("using project root from environment", "env", env, "root", root)
				return root, nil
			}
		}
		slog.Warn("ignoring invalid project root from environment", "env", env, "value", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", apperrors.NewStorageError("determine working directory", err)
	}
	slog.Info("using working directory as project root", "root", cwd)
	return cwd, nil
}

// Resolve returns the absolute data directory for the given mode.
// In per-project mode the store lives in a fixed subdirectory of the
// detected project root; in centralized mode MCP_DATA_DIR overrides the
// configured (or default) shared location.
func Resolve(mode Mode, projectRoot, dataDir string) (string, error) {
	switch mode {
	case ModePerProject:
		root, err := DetectProjectRoot(projectRoot)
		if err != nil {
			return "", err
		}
		resolved := filepath.Join(root, DataSubdir)
		slog.Info("per-project storage resolved", "dir", resolved)
		return resolved, nil

	case ModeCentralized:
		if env := os.Getenv(EnvDataDir); env != "" {
			resolved, err := filepath.Abs(env)
			if err != nil {
				return "", apperrors.NewValidationError("resolve %s %q: %v", EnvDataDir, env, err)
			}
			slog.Info("centralized storage resolved from environment", "env", EnvDataDir, "dir", resolved)
			return resolved, nil
		}
		if dataDir == "" {
			dataDir = DefaultDataDir
		}
		resolved, err := filepath.Abs(dataDir)
		if err != nil {
			return "", apperrors.NewValidationError("resolve data_dir %q: %v", dataDir, err)
		}
		slog.Info("centralized storage resolved", "dir", resolved)
		return resolved, nil

	default:
		return "", apperrors.NewValidationError("invalid storage mode %q", mode)
	}
}

// EnsureWritable creates the data directory (and missing parents) and
// probes write permission by creating and deleting a marker file. A
// failed probe is fatal for startup: better to refuse than to limp
// along with a store that cannot persist.
func EnsureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create data directory %s", dir), err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("no write permission in data directory %s", dir), err)
	}
	if err := os.Remove(probe); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("clean up write probe in %s", dir), err)
	}

	slog.Info("data directory ready", "dir", dir)
	return nil
}
