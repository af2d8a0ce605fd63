package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/spta/internal/formatter"
	"github.com/desertthunder/spta/internal/matching"
	"github.com/desertthunder/spta/internal/services"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/urfave/cli/v3"
)

// Candidate is a scored catalog search result.
type Candidate struct {
	Rank     int           `json:"rank"`
	Selected bool          `json:"selected"`
	Score    float64       `json:"score"`
	Song     services.Song `json:"song"`
}

// Search queries the storefront's catalog and scores each song against the given artist, album and track.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if term == "" {
		return fmt.Errorf("%w: search term", shared.ErrMissingArgument)
	}
	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}
	locale, err := parseLocale(cmd.String("locale"))
	if err != nil {
		return err
	}

	client, config, err := r.client()
	if err != nil {
		return err
	}

	q := services.SearchQuery{Term: term, Locale: locale, Limit: limit}
	res, err := client.SearchSongs(ctx, config.AppleMusicStorefront, q)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	source := matching.Fields{Artist: cmd.String("artist"), Album: cmd.String("album"), Track: cmd.String("track")}
	if source.Track == "" {
		source.Track = term
	}
	candidates := scoreCandidates(source, res.Items(), cmd.Float("min-score"))

	if cmd.Bool("json") {
		return r.writeJSON(candidates, true)
	}

	if len(candidates) == 0 {
		r.writePlain("No songs found for %q\n", term)
		return nil
	}

	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		marker := ""
		if c.Selected {
			marker = "✔"
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Rank),
			marker,
			strconv.FormatFloat(c.Score, 'f', 6, 64),
			c.Song.Attributes.ArtistName,
			c.Song.Attributes.AlbumName,
			c.Song.Attributes.Name,
			c.Song.ID,
		})
	}
	headers := []string{"#", "", "Score", "Artist", "Album", "Track", "ID"}
	aligns := []formatter.Alignment{formatter.AlignRight, formatter.AlignLeft, formatter.AlignRight}
	r.writePlain("%s\n", formatter.RenderTable(headers, rows, aligns))
	return nil
}

// scoreCandidates scores songs in catalog order and marks the one an import would choose.
func scoreCandidates(source matching.Fields, songs []services.Song, minScore float64) []Candidate {
	fields := make([]matching.Fields, len(songs))
	candidates := make([]Candidate, len(songs))
	for i, s := range songs {
		fields[i] = matching.SongFields(s)
		candidates[i] = Candidate{Rank: i + 1, Score: matching.Score(source, fields[i]), Song: s}
	}

	if best, ok := matching.Select(source, fields, minScore); ok {
		candidates[best.Index].Selected = true
	}
	return candidates
}
