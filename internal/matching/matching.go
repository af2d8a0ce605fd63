// package matching scores catalog candidates against a source track and picks the best one
package matching

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/desertthunder/spta/internal/services"
	"github.com/hbollon/go-edlib"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinScore is the compound score a candidate must exceed to be accepted.
const DefaultMinScore = 0.8

// MaxScore is the compound score of a candidate identical to the source in all three fields.
const MaxScore = 3.0

// Fields are the strings compared between a source track and a candidate.
type Fields struct {
	Artist string
	Album  string
	Track  string
}

// SongFields extracts the comparable fields of a catalog song.
func SongFields(s services.Song) Fields {
	return Fields{Artist: s.Attributes.ArtistName, Album: s.Attributes.AlbumName, Track: s.Attributes.Name}
}

// Match is a scored candidate. Index points into the slice passed to [Rank] or [Select].
type Match struct {
	Index int
	Score float64
}

// Similarity returns 1 minus the Damerau-Levenshtein distance divided by the longer string's rune count.
//
// Both inputs are NFC-normalized first. Two empty strings are identical.
func Similarity(a, b string) float64 {
	a, b = norm.NFC.String(a), norm.NFC.String(b)

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}

	d := edlib.DamerauLevenshteinDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// Score sums the artist, album and track similarities, giving a value in [0, 3].
func Score(source, candidate Fields) float64 {
	return Similarity(source.Artist, candidate.Artist) +
		Similarity(source.Album, candidate.Album) +
		Similarity(source.Track, candidate.Track)
}

// Rank scores every candidate and returns those strictly above minScore, best first.
// Equal scores keep their input order.
func Rank(source Fields, candidates []Fields, minScore float64) []Match {
	matches := make([]Match, 0, len(candidates))
	for i, c := range candidates {
		if s := Score(source, c); s > minScore {
			matches = append(matches, Match{Index: i, Score: s})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return matches
}

// Select returns the best candidate above minScore. The second result is false when nothing qualifies.
func Select(source Fields, candidates []Fields, minScore float64) (Match, bool) {
	ranked := Rank(source, candidates, minScore)
	if len(ranked) == 0 {
		return Match{}, false
	}
	return ranked[0], true
}

// SelectSong picks the best catalog song for source.
func SelectSong(source Fields, songs []services.Song, minScore float64) (services.Song, float64, bool) {
	fields := make([]Fields, len(songs))
	for i, s := range songs {
		fields[i] = SongFields(s)
	}

	m, ok := Select(source, fields, minScore)
	if !ok {
		return services.Song{}, 0, false
	}
	return songs[m.Index], m.Score, true
}
