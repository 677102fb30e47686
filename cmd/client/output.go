package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func parseOutputFormat(cmd *cobra.Command) (outputFormat, error) {
	flag := cmd.Flag("output")
	if flag == nil {
		return formatTable, nil
	}
	switch f := outputFormat(strings.ToLower(flag.Value.String())); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", flag.Value.String())
	}
}

// printer writes command results in the format chosen by --output. Tables
// are for people; json and yaml are stable for scripts.
type printer struct {
	w      io.Writer
	format outputFormat
}

func newPrinter(cmd *cobra.Command) (*printer, error) {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}
	return &printer{w: cmd.OutOrStdout(), format: format}, nil
}

// structured encodes v as json or yaml. It reports false for table output.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return true, err
	case formatYAML:
		// round trip through json so yaml keys match the API field names
		data, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return true, err
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (p *printer) table(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.w, gray.Render("(none)"))
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(gray).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cyan.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func stagedRows(files []totalsdk.StagedFile) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.TempID, f.Filename, formatSize(f.SizeBytes), formatTime(f.ModifiedAt)})
	}
	return rows
}

func committedRows(files []totalsdk.CommittedFile) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.ID, f.Filename, f.ContentType, formatSize(f.SizeBytes), formatTime(f.UploadedAt)})
	}
	return rows
}

var (
	stagedHeaders    = []string{"TEMP ID", "NAME", "SIZE", "MODIFIED"}
	committedHeaders = []string{"ID", "NAME", "TYPE", "SIZE", "UPLOADED"}
)
