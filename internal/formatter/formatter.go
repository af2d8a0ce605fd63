// package formatter renders import outcomes as terminal tables and writes them to report files (JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable renders rows under headers with the rounded box style.
// Short rows are padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// RenderSummary writes one table row per playlist with its track counts, followed by a totals row.
func RenderSummary(w io.Writer, results []models.PlaylistResult) error {
	headers := []string{"Playlist", "Status", "Found", "Not Found", "Skipped", "Search Failed", "URL"}
	aligns := []Alignment{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft}

	rows := make([][]string, 0, len(results)+1)
	var found, notFound, skipped, failed int
	for _, r := range results {
		f, n, s, x := r.Count(models.TrackFound), r.Count(models.TrackNotFound), r.Count(models.TrackSkipped), r.Count(models.TrackSearchFail)
		found, notFound, skipped, failed = found+f, notFound+n, skipped+s, failed+x

		link := r.URL
		if r.Status == models.PlaylistFailed && r.Message != "" {
			link = r.Message
		}
		rows = append(rows, []string{r.Name, string(r.Status), strconv.Itoa(f), strconv.Itoa(n), strconv.Itoa(s), strconv.Itoa(x), link})
	}
	rows = append(rows, []string{
		fmt.Sprintf("Total (%d)", len(results)), "",
		strconv.Itoa(found), strconv.Itoa(notFound), strconv.Itoa(skipped), strconv.Itoa(failed), "",
	})

	_, err := fmt.Fprintln(w, RenderTable(headers, rows, aligns))
	return err
}

// ExportToJSON encodes results as indented JSON.
func ExportToJSON(results []models.PlaylistResult) ([]byte, error) {
	if results == nil {
		results = []models.PlaylistResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV writes one record per track outcome. Playlists without items get a single record with empty track columns.
func ExportToCSV(results []models.PlaylistResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Playlist", "Playlist Status", "Playlist URL", "Position", "Kind", "Item", "Status", "Catalog ID", "Artist", "Name", "Score", "URL", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range results {
		prefix := []string{r.Name, string(r.Status), r.URL}
		if len(r.Tracks) == 0 {
			record := append(prefix, "", "", "", "", "", "", "", "", "", r.Message)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}

		for _, t := range r.Tracks {
			score := ""
			if t.Status == models.TrackFound {
				score = strconv.FormatFloat(t.Score, 'f', 6, 64)
			}
			record := append(prefix[:3:3],
				strconv.Itoa(t.Position+1),
				t.KindName,
				t.Item,
				string(t.Status),
				t.CatalogID,
				t.Artist,
				t.Name,
				score,
				t.URL,
				t.Message,
			)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading per playlist with its tracks as a numbered list.
func ExportToMarkdown(results []models.PlaylistResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Apple Music Import\n\n")
	fmt.Fprintf(&buf, "**Playlists**: %d\n\n", len(results))

	for _, r := range results {
		fmt.Fprintf(&buf, "## %s\n\n", r.Name)
		fmt.Fprintf(&buf, "**Status**: %s\n", r.Status)
		if r.URL != "" {
			fmt.Fprintf(&buf, "**Link**: %s\n", r.URL)
		}
		if r.Message != "" {
			fmt.Fprintf(&buf, "**Message**: %s\n", r.Message)
		}
		fmt.Fprintf(&buf, "**Matched**: %d of %d\n\n", r.Matched(), len(r.Tracks))

		if len(r.Tracks) == 0 {
			continue
		}
		for _, t := range r.Tracks {
			line := fmt.Sprintf("%d. %s [%s]", t.Position+1, t.Item, t.Status)
			switch {
			case t.Status == models.TrackFound && t.URL != "":
				line += fmt.Sprintf(" → [%s - %s](%s) (%.3f)", t.Artist, t.Name, t.URL, t.Score)
			case t.Status == models.TrackFound:
				line += fmt.Sprintf(" → %s - %s (%.3f)", t.Artist, t.Name, t.Score)
			case t.Message != "":
				line += ": " + t.Message
			}
			buf.WriteString(line + "\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ReportFormat returns the report format implied by the file extension: json, csv or markdown.
func ReportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".csv":
		return "csv", nil
	case ".md", ".markdown":
		return "markdown", nil
	default:
		return "", fmt.Errorf("%w: unsupported report extension %q (use .json, .csv or .md)", shared.ErrInvalidArgument, filepath.Ext(path))
	}
}

// WriteReport writes results to path in the format chosen by its extension and returns that format.
func WriteReport(path string, results []models.PlaylistResult) (string, error) {
	format, err := ReportFormat(path)
	if err != nil {
		return "", err
	}

	var data []byte
	switch format {
	case "json":
		data, err = ExportToJSON(results)
	case "csv":
		data, err = ExportToCSV(results)
	default:
		data, err = ExportToMarkdown(results)
	}
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return format, nil
}
