package converter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kfreiman/anypdf/internal/process"
)

// Stage names the step of a conversion that failed
type Stage string

const (
	StageImageEncode    Stage = "image-encode"
	StageOfficeExport   Stage = "office-export"
	StageNotebookExport Stage = "notebook-export"
	StageTabularParse   Stage = "tabular-parse"
	StageMarkupRender   Stage = "markup-render"
	StageTimeout        Stage = "timeout"
)

// ConversionError represents a conversion failure with the diagnostic of the
// step that failed
type ConversionError struct {
	Stage Stage
	Path  string
	// Diagnostic is the tool's decoded stderr or the parse error text, unmodified
	Diagnostic string
	Err        error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Stage)
	if e.Path != "" {
		msg += fmt.Sprintf(" (file: %s)", e.Path)
	}

	detail := strings.TrimSpace(e.Diagnostic)
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail != "" {
		msg += ": " + truncate(detail, maxDetailBytes)
	}
	return msg
}

const maxDetailBytes = 500

// truncate cuts s to at most n bytes on a rune boundary
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of a conversion failure, or "" for other errors
func StageOf(err error) Stage {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Stage
	}
	return ""
}

// failure builds a ConversionError for stage from err. Tool timeouts are
// reported under StageTimeout whatever step was running.
func failure(stage Stage, path string, err error) *ConversionError {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr
	}

	out := &ConversionError{Stage: stage, Path: path, Err: err}

	var timeoutErr *process.TimeoutError
	var exitErr *process.ExitError
	switch {
	case errors.As(err, &timeoutErr):
		out.Stage = StageTimeout
		out.Diagnostic = timeoutErr.Error()
		if timeoutErr.Stderr != "" {
			out.Diagnostic += ": " + timeoutErr.Stderr
		}
	case errors.Is(err, process.ErrTimeout):
		out.Stage = StageTimeout
		out.Diagnostic = err.Error()
	case errors.As(err, &exitErr):
		out.Diagnostic = exitErr.Stderr
	case err != nil:
		out.Diagnostic = err.Error()
	}
	return out
}

// missingOutput reports a tool that exited cleanly without leaving a usable file
func missingOutput(stage Stage, path, diagnostic string) *ConversionError {
	return &ConversionError{
		Stage:      stage,
		Path:       path,
		Diagnostic: diagnostic,
		Err:        ErrNoOutput,
	}
}
