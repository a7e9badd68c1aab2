package converter

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/kfreiman/anypdf/internal/process"
)

func TestConversionError_Error(t *testing.T) {
	t.Run("with diagnostic", func(t *testing.T) {
		err := &ConversionError{Stage: StageOfficeExport, Path: "/u/a.docx", Diagnostic: "source file could not be loaded"}
		assert.Equal(t, "office-export failed (file: /u/a.docx): source file could not be loaded", err.Error())
	})

	t.Run("falls back to the wrapped error", func(t *testing.T) {
		err := &ConversionError{Stage: StageTabularParse, Err: errors.New("bare quote")}
		assert.Equal(t, "tabular-parse failed: bare quote", err.Error())
	})

	t.Run("truncates long diagnostics in the message only", func(t *testing.T) {
		long := strings.Repeat("x", 800)
		err := &ConversionError{Stage: StageMarkupRender, Diagnostic: long}
		assert.Len(t, err.Diagnostic, 800)
		assert.True(t, strings.HasSuffix(err.Error(), "..."))
		assert.Less(t, len(err.Error()), 600)
	})

	t.Run("truncates multibyte diagnostics on a rune boundary", func(t *testing.T) {
		// 'é' is two bytes, so byte 500 would fall mid-rune after a one-byte prefix
		err := &ConversionError{Stage: StageMarkupRender, Diagnostic: "x" + strings.Repeat("é", 400)}

		msg := err.Error()
		assert.True(t, utf8.ValidString(msg))
		assert.True(t, strings.HasSuffix(msg, "é..."))
		assert.Equal(t, "markup-render failed: x"+strings.Repeat("é", 249)+"...", msg)
	})

	t.Run("trims surrounding whitespace of the diagnostic in the message", func(t *testing.T) {
		err := &ConversionError{Stage: StageOfficeExport, Diagnostic: "Error: source file could not be loaded\n"}
		assert.Equal(t, "office-export failed: Error: source file could not be loaded", err.Error())
		assert.Equal(t, "Error: source file could not be loaded\n", err.Diagnostic)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "...", truncate("日本", 2))
	assert.Equal(t, "日...", truncate("日本", 4))
}

func TestFailure(t *testing.T) {
	t.Run("exit error keeps stderr verbatim", func(t *testing.T) {
		exitErr := &process.ExitError{Command: "libreoffice", ExitCode: 1, Stderr: "Error: source file could not be loaded"}
		err := failure(StageOfficeExport, "/u/a.docx", exitErr)

		assert.Equal(t, StageOfficeExport, err.Stage)
		assert.Equal(t, "Error: source file could not be loaded", err.Diagnostic)
		assert.ErrorIs(t, err, exitErr)
	})

	t.Run("timeout overrides the stage", func(t *testing.T) {
		timeoutErr := &process.TimeoutError{Command: "pandoc", Timeout: time.Second, Stderr: "partial"}
		err := failure(StageMarkupRender, "/u/a.md", fmt.Errorf("rendering: %w", timeoutErr))

		assert.Equal(t, StageTimeout, err.Stage)
		assert.Contains(t, err.Diagnostic, "partial")
		assert.ErrorIs(t, err, process.ErrTimeout)
	})

	t.Run("existing conversion error is kept", func(t *testing.T) {
		inner := &ConversionError{Stage: StageMarkupRender, Diagnostic: "latex error"}
		err := failure(StageTabularParse, "/u/a.csv", inner)
		assert.Same(t, inner, err)
	})

	t.Run("plain error", func(t *testing.T) {
		err := failure(StageImageEncode, "/u/a.png", errors.New("unsupported"))
		assert.Equal(t, "unsupported", err.Diagnostic)
	})
}

func TestStageOf(t *testing.T) {
	assert.Equal(t, StageNotebookExport, StageOf(fmt.Errorf("wrapped: %w", &ConversionError{Stage: StageNotebookExport})))
	assert.Equal(t, Stage(""), StageOf(errors.New("other")))
}
