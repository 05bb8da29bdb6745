// Package export turns materialized rows into files and terminal output.
// It consumes only the engine's materialized-rows contract (rows plus
// column metadata) and never touches the resolver or the engine state
// machine.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	acrotable "github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// formatValue renders one cell for CSV or terminal output.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// WriteCSV writes the rows as CSV with a header row of column names.
func WriteCSV(w io.Writer, cols []acrotable.Column, rows []acrotable.Row) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i := range cols {
			record[i] = formatValue(row[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the rows to a CSV file at path.
func WriteCSVFile(path string, cols []acrotable.Column, rows []acrotable.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, cols, rows); err != nil {
		return err
	}
	return f.Close()
}

// WriteDescription writes the column documentation (name, type,
// description) as CSV, the companion sheet to the data export.
func WriteDescription(w io.Writer, cols []acrotable.Column) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"column name", "data type", "column description"}); err != nil {
		return fmt.Errorf("failed to write description header: %w", err)
	}
	for _, c := range cols {
		if err := cw.Write([]string{c.Name, c.Type.String(), c.Description}); err != nil {
			return fmt.Errorf("failed to write description row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDescriptionFile writes the column documentation to a CSV file.
func WriteDescriptionFile(path string, cols []acrotable.Column) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteDescription(f, cols); err != nil {
		return err
	}
	return f.Close()
}

// Render prints the rows as an aligned terminal table.
func Render(w io.Writer, cols []acrotable.Column, rows []acrotable.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	t.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(cols))
		for i := range cols {
			cells[i] = formatValue(row[i])
		}
		t.AppendRow(cells)
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}
