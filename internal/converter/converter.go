package converter

import (
	"context"
	"path/filepath"
	"strings"
)

// Request is one input to convert
type Request struct {
	Path string
	// Ext is the lower-cased extension with its leading dot, or ""
	Ext string
}

// NewRequest builds a request from a path, deriving the extension
func NewRequest(path string) Request {
	return Request{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
}

// Converter turns one input file into a PDF and returns the PDF's path
type Converter interface {
	Convert(ctx context.Context, req Request) (string, error)
}

// ConverterFunc adapts a function to the Converter interface
type ConverterFunc func(ctx context.Context, req Request) (string, error)

// Convert implements Converter
func (f ConverterFunc) Convert(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
