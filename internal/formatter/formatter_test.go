package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spta/internal/models"
	"github.com/desertthunder/spta/internal/shared"
	th "github.com/desertthunder/spta/internal/testing"
)

func sampleResults() []models.PlaylistResult {
	return []models.PlaylistResult{
		{
			Name:       "Road Trip",
			Status:     models.PlaylistCreated,
			PlaylistID: "p.abc",
			URL:        "https://music.apple.com/no/library/playlist/p.abc",
			Tracks: []models.TrackResult{
				{Position: 0, KindName: "track", Item: "Daft Punk - One More Time", Status: models.TrackFound, CatalogID: "697195462", Artist: "Daft Punk", Name: "One More Time", URL: "https://music.apple.com/no/song/697195462", Score: 3},
				{Position: 1, KindName: "track", Item: "Unknown - Nothing", Status: models.TrackNotFound},
				{Position: 2, KindName: "episode", Item: `episode "Ep" of "Show"`, Status: models.TrackSkipped, Message: "Not a track"},
			},
		},
		{
			Name:    "Focus",
			Status:  models.PlaylistFailed,
			Message: "Invalid Parameter Value",
			Tracks:  []models.TrackResult{},
		},
	}
}

func TestRenderTable(t *testing.T) {
	t.Run("No Columns", func(t *testing.T) {
		if got := RenderTable(nil, [][]string{{"x"}}, nil); got != "" {
			t.Errorf("expected empty table, got %q", got)
		}
	})

	t.Run("Pads Short Rows", func(t *testing.T) {
		got := RenderTable([]string{"A", "B"}, [][]string{{"only"}}, []Alignment{AlignLeft, AlignRight})
		if !strings.Contains(got, "only") || !strings.Contains(got, "╭") {
			t.Errorf("unexpected table:\n%s", got)
		}
	})
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sampleResults()); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Road Trip", "created", "p.abc", "Focus", "Invalid Parameter Value", "Total (2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("summary should end with a newline")
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleResults())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0]["status"] != "created" {
			t.Errorf("unexpected JSON report %s", data)
		}
		tracks := decoded[0]["tracks"].([]any)
		if tracks[2].(map[string]any)["kind"] != "episode" {
			t.Errorf("expected kind name in report, got %v", tracks[2])
		}

		empty, err := ExportToJSON(nil)
		if err != nil || strings.TrimSpace(string(empty)) != "[]" {
			t.Errorf("expected empty array, got %q (%v)", empty, err)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleResults())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 5 {
			t.Fatalf("expected header and 4 records, got %d", len(records))
		}
		if strings.Join(records[0][:4], ",") != "Playlist,Playlist Status,Playlist URL,Position" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[1][3] != "1" || records[1][7] != "697195462" || records[1][10] != "3.000000" {
			t.Errorf("unexpected found record %v", records[1])
		}
		if records[2][10] != "" {
			t.Errorf("expected empty score for unmatched track, got %q", records[2][10])
		}
		last := records[4]
		if last[0] != "Focus" || last[1] != "failed" || last[12] != "Invalid Parameter Value" {
			t.Errorf("unexpected empty-playlist record %v", last)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleResults())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		out := string(data)

		for _, want := range []string{
			"# Apple Music Import",
			"**Playlists**: 2",
			"## Road Trip",
			"**Matched**: 1 of 3",
			"1. Daft Punk - One More Time [found] → [Daft Punk - One More Time](https://music.apple.com/no/song/697195462) (3.000)",
			"2. Unknown - Nothing [not_found]",
			`3. episode "Ep" of "Show" [skipped]: Not a track`,
			"**Message**: Invalid Parameter Value",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})
}

func TestReportFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "out.json", want: "json"},
		{path: "out.CSV", want: "csv"},
		{path: "reports/out.md", want: "markdown"},
		{path: "out.markdown", want: "markdown"},
		{path: "out.txt", wantErr: true},
		{path: "out", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ReportFormat(tt.path)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ReportFormat(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestWriteReport(t *testing.T) {
	t.Run("Creates Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports", "import.csv")

		format, err := WriteReport(path, sampleResults())
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if format != "csv" {
			t.Errorf("expected csv, got %q", format)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Road Trip") {
			t.Errorf("report missing playlist:\n%s", content)
		}
	})

	t.Run("Unsupported Extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "import.xml")
		if _, err := WriteReport(path, sampleResults()); err == nil {
			t.Fatal("expected error for unsupported extension")
		}
	})
}
