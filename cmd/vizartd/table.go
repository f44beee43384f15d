package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"vizart/internal/jobs"
)

func renderTable(headers []string, rows [][]string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderStatus colorizes a job status for terminal output.
func renderStatus(status jobs.Status) string {
	if !stdoutIsTerminal() {
		return string(status)
	}
	switch status {
	case jobs.StatusCompleted:
		return text.FgGreen.Sprint(string(status))
	case jobs.StatusFailed:
		return text.FgRed.Sprint(string(status))
	case jobs.StatusProcessing:
		return text.FgCyan.Sprint(string(status))
	case jobs.StatusCancelled:
		return text.FgYellow.Sprint(string(status))
	default:
		return string(status)
	}
}
