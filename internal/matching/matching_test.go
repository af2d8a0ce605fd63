package matching

import (
	"math"
	"testing"

	"github.com/desertthunder/spta/internal/services"
)

func song(id, artist, album, track string) services.Song {
	return services.Song{
		ID:   id,
		Type: services.Songs,
		Attributes: services.SongAttributes{
			ArtistName: artist,
			AlbumName:  album,
			Name:       track,
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "Discovery", b: "Discovery", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "abc", b: "", want: 0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
		{name: "single substitution", a: "abcd", b: "abce", want: 0.75},
		{name: "transposition counts once", a: "abcd", b: "abdc", want: 0.75},
		{name: "case sensitive", a: "a", b: "A", want: 0},
		{name: "runes not bytes", a: "Motörhead", b: "Motorhead", want: 1 - 1.0/9},
		{name: "canonical equivalence", a: "Beyonc\u00e9", b: "Beyonce\u0301", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		f := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time"}
		if got := Score(f, f); !almostEqual(got, MaxScore) {
			t.Errorf("expected %v, got %v", MaxScore, got)
		}
	})

	t.Run("Disjoint", func(t *testing.T) {
		got := Score(Fields{Artist: "aaa", Album: "bbb", Track: "ccc"}, Fields{Artist: "xyz", Album: "uvw", Track: "rst"})
		if got > 0.01 {
			t.Errorf("expected near 0, got %v", got)
		}
	})
}

func TestSelect(t *testing.T) {
	source := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time"}

	t.Run("Single Candidate Above Threshold Selected Regardless Of Position", func(t *testing.T) {
		good := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time"}
		bad := Fields{Artist: "zzzz", Album: "qqqq", Track: "wwww"}

		for pos := 0; pos < 3; pos++ {
			candidates := []Fields{bad, bad, bad}
			candidates[pos] = good

			m, ok := Select(source, candidates, DefaultMinScore)
			if !ok {
				t.Fatalf("position %d: expected a match", pos)
			}
			if m.Index != pos {
				t.Errorf("expected index %d, got %d", pos, m.Index)
			}
		}
	})

	t.Run("Ties Resolve To Earliest", func(t *testing.T) {
		a := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time (Edit)"}
		candidates := []Fields{{Artist: "x", Album: "y", Track: "z"}, a, a}

		m, ok := Select(source, candidates, DefaultMinScore)
		if !ok || m.Index != 1 {
			t.Errorf("expected index 1, got %+v (ok=%v)", m, ok)
		}
	})

	t.Run("Empty Candidates", func(t *testing.T) {
		if _, ok := Select(source, nil, DefaultMinScore); ok {
			t.Error("expected no match")
		}
	})

	t.Run("Threshold Is Exclusive", func(t *testing.T) {
		c := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time"}
		if _, ok := Select(source, []Fields{c}, MaxScore); ok {
			t.Error("expected a score equal to minScore to be rejected")
		}
		if _, ok := Select(source, []Fields{c}, MaxScore-0.001); !ok {
			t.Error("expected a score above minScore to be accepted")
		}
	})

	t.Run("All Below Threshold", func(t *testing.T) {
		candidates := []Fields{{Artist: "Abba", Album: "Gold", Track: "SOS"}}
		if _, ok := Select(source, candidates, 2.5); ok {
			t.Error("expected no match")
		}
	})
}

func TestRank(t *testing.T) {
	source := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "Digital Love"}
	candidates := []Fields{
		{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time"},
		{Artist: "Daft Punk", Album: "Discovery", Track: "Digital Love"},
		{Artist: "Nobody", Album: "Nothing", Track: "None"},
	}

	ranked := Rank(source, candidates, DefaultMinScore)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].Index != 1 || !almostEqual(ranked[0].Score, MaxScore) {
		t.Errorf("expected exact match first, got %+v", ranked[0])
	}
	if ranked[1].Index != 0 || ranked[1].Score >= ranked[0].Score {
		t.Errorf("expected partial match second, got %+v", ranked[1])
	}
}

func TestSelectSong(t *testing.T) {
	source := Fields{Artist: "Daft Punk", Album: "Discovery", Track: "One More Time"}
	songs := []services.Song{
		song("1", "Daft Punk", "Discovery", "One More Time"),
		song("2", "Daft Punk", "Alive 2007", "One More Time / Aerodynamic"),
	}

	got, score, ok := SelectSong(source, songs, DefaultMinScore)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != "1" {
		t.Errorf("expected song 1, got %s", got.ID)
	}
	if !almostEqual(score, 3.0) {
		t.Errorf("expected score 3.0, got %v", score)
	}

	if _, _, ok := SelectSong(source, nil, DefaultMinScore); ok {
		t.Error("expected no match for empty results")
	}
}
