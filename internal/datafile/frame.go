// Package datafile reads tabular and binary data files into previews that can
// be rendered as markdown.
package datafile

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	// PreviewRows is the number of rows shown for a single table
	PreviewRows = 50
	// DatabasePreviewRows is the number of rows shown per database table
	DatabasePreviewRows = 5
)

// Content is anything a reader can produce that renders to markdown
type Content interface {
	Markdown() string
}

// Frame is a tabular structure with a bounded set of materialised rows
type Frame struct {
	Columns []string
	// Rows holds at most PreviewRows rows
	Rows [][]string
	// TotalRows is the row count of the whole source, not just Rows
	TotalRows int
}

// Markdown renders the frame as a data preview with its dimensions
func (f *Frame) Markdown() string {
	var b strings.Builder
	b.WriteString("# Data File Preview\n\n")
	fmt.Fprintf(&b, "Rows: %d; Columns: %d\n\n", f.TotalRows, len(f.Columns))
	b.WriteString(RenderTable(f.Columns, head(f.Rows, PreviewRows)))
	return b.String()
}

// Object is a non-tabular value shown as its literal representation
type Object struct {
	Repr string
}

// Markdown returns the representation unchanged
func (o *Object) Markdown() string {
	return o.Repr
}

// TablePreview is the first rows of one database table
type TablePreview struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Database is a set of table previews in enumeration order
type Database struct {
	Tables []TablePreview
}

// Markdown renders a heading and a short table for every database table
func (d *Database) Markdown() string {
	sections := []string{"# SQLite Database Preview"}
	for _, t := range d.Tables {
		sections = append(sections, fmt.Sprintf("## Table: %s", t.Name))
		sections = append(sections, RenderTable(t.Columns, head(t.Rows, DatabasePreviewRows)))
	}
	return strings.Join(sections, "\n\n")
}

// Notice is a plain-text message standing in for content that could not be read
type Notice string

// Markdown returns the notice text
func (n Notice) Markdown() string {
	return string(n)
}

// RenderTable renders a header row and data rows as a GitHub-flavoured pipe table
func RenderTable(columns []string, rows [][]string) string {
	t := table.NewWriter()
	// Column names are data; keep their original case.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(columns))
		for i := range columns {
			if i < len(r) {
				row[i] = r[i]
			} else {
				row[i] = ""
			}
		}
		t.AppendRow(row)
	}

	return t.RenderMarkdown()
}

func head(rows [][]string, n int) [][]string {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
