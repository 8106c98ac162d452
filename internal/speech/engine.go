// Package speech drives an external text-to-speech engine. The server does
// not bundle a synthesizer; it shells out to espeak-ng (or a configured
// binary) and degrades gracefully when none is installed.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
)

// Synthesizer renders text to an audio file on disk.
type Synthesizer interface {
	// Synthesize writes a WAV file for the given text and returns its path.
	Synthesize(ctx context.Context, text string, rate float64) (string, error)
	// Available reports whether a speech engine was found.
	Available() bool
}

// espeak-ng expresses rate in words per minute.
const baseWordsPerMinute = 180

// Engine is the default Synthesizer backed by an external binary.
type Engine struct {
	binaryPath     string
	exportPath     string
	wordsPerMinute int
	logger         *slog.Logger
}

// NewEngine locates the speech binary and prepares the export directory.
// A missing binary is not fatal: the engine starts in degraded mode and
// audio export reports itself unavailable. An explicitly configured binary
// that does not exist is a configuration error.
func NewEngine(cfg config.SpeechConfig, logger *slog.Logger) (*Engine, error) {
	var binaryPath string
	switch {
	case !cfg.Enabled:
		logger.Info("speech synthesis disabled by config")
	case cfg.EnginePath != "":
		if _, err := os.Stat(cfg.EnginePath); err != nil {
			return nil, fmt.Errorf("configured speech engine not found: %w", err)
		}
		binaryPath = cfg.EnginePath
	default:
		path, err := exec.LookPath("espeak-ng")
		if err != nil {
			logger.Warn("speech engine not found, audio export disabled")
		}
		binaryPath = path
	}
	if binaryPath != "" {
		logger.Info("using speech engine", slog.String("path", binaryPath))
	}

	if err := os.MkdirAll(cfg.ExportPath, 0o750); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	wpm := cfg.WordsPerMinute
	if wpm <= 0 {
		wpm = baseWordsPerMinute
	}

	return &Engine{
		binaryPath:     binaryPath,
		exportPath:     cfg.ExportPath,
		wordsPerMinute: wpm,
		logger:         logger,
	}, nil
}

// Available reports whether a speech binary was found.
func (e *Engine) Available() bool {
	return e.binaryPath != ""
}

// Synthesize renders text to a WAV file in the export directory.
// The playback rate scales the engine's words-per-minute setting.
func (e *Engine) Synthesize(ctx context.Context, text string, rate float64) (string, error) {
	if !e.Available() {
		return "", domainerrors.Unsupported("no speech engine installed")
	}
	if text == "" {
		return "", domainerrors.Validation("nothing to synthesize")
	}
	if rate <= 0 {
		rate = 1.0
	}

	outFile, err := os.CreateTemp(e.exportPath, "export-*.wav")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	outPath := outFile.Name()
	if err := outFile.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	wpm := int(float64(e.wordsPerMinute) * rate)

	cmd := exec.CommandContext(ctx, e.binaryPath, //nolint:gosec // binary path is from exec.LookPath or config
		"-s", strconv.Itoa(wpm),
		"-w", outPath,
		"--stdin",
	)
	cmd.Stdin = strings.NewReader(text)

	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(outPath)
		e.logger.Error("speech engine failed",
			slog.String("output", string(output)),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("speech engine: %w", err)
	}

	return outPath, nil
}

// ExportDir returns the directory exports are written to.
func (e *Engine) ExportDir() string {
	return e.exportPath
}

// CleanupExports removes export files older than the retention cutoff.
func (e *Engine) CleanupExports(keep int) error {
	entries, err := os.ReadDir(e.exportPath)
	if err != nil {
		return fmt.Errorf("read export directory: %w", err)
	}
	if len(entries) <= keep {
		return nil
	}
	// Temp suffixes are random, so order by modification time.
	type fileAge struct {
		name    string
		modTime int64
	}
	files := make([]fileAge, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileAge{name: entry.Name(), modTime: info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime < files[j].modTime })
	if len(files) <= keep {
		return nil
	}
	for _, f := range files[:len(files)-keep] {
		_ = os.Remove(filepath.Join(e.exportPath, f.name))
	}
	return nil
}
