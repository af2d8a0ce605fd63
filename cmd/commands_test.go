package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spta/internal/repositories"
	"github.com/desertthunder/spta/internal/services"
	"github.com/desertthunder/spta/internal/shared"
	tu "github.com/desertthunder/spta/internal/testing"
	"github.com/gorilla/mux"
	"github.com/urfave/cli/v3"
)

const exportFixture = `{
  "playlists": [
    {
      "name": "Road Trip",
      "lastModifiedDate": "2024-01-31",
      "items": [
        {"track": {"trackName": "One More Time", "artistName": "Daft Punk", "albumName": "Discovery", "trackUri": "spotify:track:0DiWol3AO6WpXZgp0goxAV"}, "episode": null, "localTrack": null, "addedDate": "2024-01-01"},
        {"track": null, "episode": {"episodeName": "Ep", "showName": "Show", "episodeUri": "spotify:episode:1"}, "localTrack": null, "addedDate": "2024-01-02"}
      ],
      "description": null,
      "numberOfFollowers": 0
    },
    {
      "name": "Existing",
      "lastModifiedDate": "2024-01-31",
      "items": [],
      "description": null,
      "numberOfFollowers": 0
    },
    {
      "name": "Ignored",
      "lastModifiedDate": "2024-01-31",
      "items": [],
      "description": null,
      "numberOfFollowers": 0
    }
  ]
}`

const daftPunkSongs = `[
	{"id":"697195462","type":"songs","href":"/v1/catalog/no/songs/697195462","attributes":{"name":"One More Time","artistName":"Daft Punk","albumName":"Discovery","url":"https://music.apple.com/no/song/697195462","durationInMillis":320357,"hasLyrics":true,"isAppleDigitalMaster":false,"artwork":{"url":"x","width":1,"height":1}}},
	{"id":"697195787","type":"songs","href":"/v1/catalog/no/songs/697195787","attributes":{"name":"Around the World","artistName":"Daft Punk","albumName":"Homework","url":"https://music.apple.com/no/song/697195787","durationInMillis":429533,"hasLyrics":true,"isAppleDigitalMaster":false,"artwork":{"url":"x","width":1,"height":1}}}
]`

// fakeAppleMusic serves the library and catalog endpoints the commands use.
type fakeAppleMusic struct {
	mu        sync.Mutex
	creations []services.LibraryPlaylistCreationRequest
	searches  []string
}

func (f *fakeAppleMusic) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/me/library/playlists", f.listPlaylists).Methods(http.MethodGet)
	r.HandleFunc("/v1/me/library/playlists", f.createPlaylist).Methods(http.MethodPost)
	r.HandleFunc("/v1/me/library/playlists/{id}/tracks", f.playlistTracks).Methods(http.MethodGet)
	r.HandleFunc("/v1/me/library/songs", f.librarySongs).Methods(http.MethodGet)
	r.HandleFunc("/v1/catalog/{storefront}/search", f.search).Methods(http.MethodGet)
	return r
}

func (f *fakeAppleMusic) listPlaylists(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"data":[{"id":"p.2","type":"library-playlists","href":"/v1/me/library/playlists/p.2","attributes":{"name":"Existing","canEdit":true,"hasCatalog":false,"isPublic":false}}]}`)
}

func (f *fakeAppleMusic) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req services.LibraryPlaylistCreationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.creations = append(f.creations, req)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, `{"data":[{"id":"p.new","type":"library-playlists","href":"/v1/me/library/playlists/p.new","attributes":{"name":"x","canEdit":true,"hasCatalog":false,"isPublic":false}}]}`)
}

func (f *fakeAppleMusic) playlistTracks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"data":[{"id":"i.1","type":"library-songs","href":"/v1/me/library/songs/i.1","attributes":{"name":"One More Time","artistName":"Daft Punk","albumName":"Discovery","durationInMillis":320357,"hasLyrics":true,"artwork":{"url":"x","width":1,"height":1}}}]}`)
}

func (f *fakeAppleMusic) librarySongs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("offset") == "1" {
		io.WriteString(w, `{"data":[{"id":"i.2","type":"library-songs","href":"/v1/me/library/songs/i.2","attributes":{"name":"Around the World","artistName":"Daft Punk","durationInMillis":429533,"hasLyrics":true,"artwork":{"url":"x","width":1,"height":1}}}]}`)
		return
	}
	io.WriteString(w, `{"next":"/v1/me/library/songs?offset=1","data":[{"id":"i.1","type":"library-songs","href":"/v1/me/library/songs/i.1","attributes":{"name":"One More Time","artistName":"Daft Punk","albumName":"Discovery","durationInMillis":320357,"hasLyrics":true,"artwork":{"url":"x","width":1,"height":1}}}]}`)
}

func (f *fakeAppleMusic) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	f.searches = append(f.searches, mux.Vars(r)["storefront"]+"|"+q.Get("term")+"|"+q.Get("l")+"|"+q.Get("limit"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if q.Get("term") != "Daft Punk One More Time" {
		io.WriteString(w, `{"results":{},"meta":{"results":{"order":[],"rawOrder":[]}}}`)
		return
	}
	io.WriteString(w, `{"results":{"songs":{"href":"/v1/catalog/no/search","data":`+daftPunkSongs+`}},"meta":{"results":{"order":["songs"],"rawOrder":["songs"]}}}`)
}

// testEnv wires a runner to a fake catalog server.
type testEnv struct {
	fake   *fakeAppleMusic
	runner *Runner
	output *bytes.Buffer
	dir    string
}

func newTestEnv(t *testing.T, config *shared.Config) *testEnv {
	t.Helper()

	fake := &fakeAppleMusic{}
	server := httptest.NewServer(fake.router())
	t.Cleanup(server.Close)

	if config == nil {
		config = &shared.Config{AppleMusicUserToken: "user-abc", AppleMusicStorefront: "no", MaxRetries: 1}
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Tokens:     &tu.StaticToken{Token: "bearer-123"},
		Logger:     shared.NewLogger(io.Discard),
		Input:      strings.NewReader(""),
		Output:     output,
		Attended:   func() bool { return false },
	})

	return &testEnv{fake: fake, runner: runner, output: output, dir: t.TempDir()}
}

func newTestApp(r *Runner) *cli.Command {
	return &cli.Command{Name: "spta", Flags: globalFlags(), Before: r.Before, Commands: r.register()}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	return newTestApp(e.runner).Run(t.Context(), append([]string{"spta"}, args...))
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	tu.MustWriteFile(t, path, content)
	return path
}

func TestImportCommand(t *testing.T) {
	t.Run("Imports Selected Playlists", func(t *testing.T) {
		env := newTestEnv(t, nil)
		exportPath := filepath.Join(env.dir, "Playlist1.json")
		tu.MustWriteFile(t, exportPath, exportFixture)
		reportPath := filepath.Join(env.dir, "reports", "import.json")
		dbPath := filepath.Join(env.dir, "journal.db")

		err := env.run(t, "import",
			"--playlists", "Road Trip", "--playlists", "Existing",
			"--locale", "en-us", "--limit", "5",
			"--report", reportPath, "--db", dbPath,
			exportPath,
		)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}

		out := env.output.String()
		for _, want := range []string{
			"Loaded 3 playlists from Spotify data export",
			"Loaded 1 playlist from Apple Music",
			"Playlist Existing already exists in Apple Music",
			`Processing playlist "Road Trip"`,
			`Found "Daft Punk - One More Time" in the Apple Music catalog (score: 3.000000): https://music.apple.com/no/song/697195462`,
			`Skipping "episode \"Ep\" of \"Show\"": Not a track`,
			`Created playlist "Road Trip" in Apple Music: https://music.apple.com/no/library/playlist/p.new`,
			"Wrote json report to " + reportPath,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Ignored") {
			t.Errorf("unselected playlist should not be processed:\n%s", out)
		}

		env.fake.mu.Lock()
		if len(env.fake.creations) != 1 || env.fake.creations[0].Attributes.Name != "Road Trip" {
			t.Errorf("unexpected creations %+v", env.fake.creations)
		}
		if strings.Join(env.fake.searches, ",") != "no|Daft Punk One More Time|en-US|5" {
			t.Errorf("unexpected searches %v", env.fake.searches)
		}
		env.fake.mu.Unlock()

		var report []map[string]any
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, reportPath)), &report); err != nil {
			t.Fatalf("invalid report: %v", err)
		}
		if len(report) != 2 || report[0]["name"] != "Road Trip" || report[0]["status"] != "created" ||
			report[1]["name"] != "Existing" || report[1]["status"] != "already_exists" {
			t.Errorf("unexpected report %v", report)
		}

		db, err := shared.OpenJournal(dbPath)
		if err != nil {
			t.Fatalf("failed to open journal: %v", err)
		}
		defer db.Close()
		runs, err := repositories.NewImportRepository(db).List(nil)
		if err != nil || len(runs) != 1 {
			t.Fatalf("expected one journaled run, got %d (%v)", len(runs), err)
		}
		if runs[0].PlaylistsTotal() != 2 || runs[0].PlaylistsCreated() != 1 || runs[0].Status() != "completed" {
			t.Errorf("unexpected run counts %d/%d %s", runs[0].PlaylistsCreated(), runs[0].PlaylistsTotal(), runs[0].Status())
		}
	})

	t.Run("Dry Run Creates Nothing", func(t *testing.T) {
		env := newTestEnv(t, nil)
		exportPath := filepath.Join(env.dir, "Playlist1.json")
		tu.MustWriteFile(t, exportPath, exportFixture)

		if err := env.run(t, "import", "--dry", "--playlists", "Road Trip", "--playlists", "Existing", exportPath); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		out := env.output.String()
		if !strings.Contains(out, `Skipped creating playlist "Road Trip" in Apple Music (--dry)`) ||
			!strings.Contains(out, `Skipped creating playlist "Existing" in Apple Music (--dry)`) {
			t.Errorf("expected dry run lines:\n%s", out)
		}
		if len(env.fake.creations) != 0 {
			t.Errorf("dry run must not create playlists, got %d", len(env.fake.creations))
		}
	})

	t.Run("Nothing Selected", func(t *testing.T) {
		env := newTestEnv(t, nil)
		exportPath := filepath.Join(env.dir, "Playlist1.json")
		tu.MustWriteFile(t, exportPath, exportFixture)

		if err := env.run(t, "import", exportPath); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "No playlists selected") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
		if len(env.fake.searches) != 0 {
			t.Error("no catalog calls expected")
		}
	})

	t.Run("Argument Validation", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "missing file", args: []string{"import"}, want: shared.ErrMissingArgument},
			{name: "min score too high", args: []string{"import", "--min-score", "3", "x.json"}, want: shared.ErrInvalidFlag},
			{name: "negative min score", args: []string{"import", "--min-score=-1", "x.json"}, want: shared.ErrInvalidFlag},
			{name: "zero limit", args: []string{"import", "--limit", "0", "x.json"}, want: shared.ErrInvalidFlag},
			{name: "bad locale", args: []string{"import", "--locale", "not a locale", "x.json"}, want: shared.ErrInvalidFlag},
			{name: "bad report extension", args: []string{"import", "--report", "out.xml", "x.json"}, want: shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv(t, nil)
				if err := env.run(t, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Missing User Token", func(t *testing.T) {
		env := newTestEnv(t, shared.DefaultConfig())
		exportPath := filepath.Join(env.dir, "Playlist1.json")
		tu.MustWriteFile(t, exportPath, exportFixture)

		if err := env.run(t, "spta", exportPath); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Export File", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if err := env.run(t, "import", filepath.Join(env.dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("JSON Candidates", func(t *testing.T) {
		env := newTestEnv(t, nil)

		err := env.run(t, "search", "--artist", "Daft Punk", "--album", "Discovery", "--track", "One More Time", "--json", "Daft Punk One More Time")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var candidates []Candidate
		if err := json.Unmarshal(env.output.Bytes(), &candidates); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, env.output.String())
		}
		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		if !candidates[0].Selected || candidates[0].Score != 3.0 || candidates[0].Song.ID != "697195462" {
			t.Errorf("unexpected first candidate %+v", candidates[0])
		}
		if candidates[1].Selected || candidates[1].Rank != 2 {
			t.Errorf("unexpected second candidate %+v", candidates[1])
		}
	})

	t.Run("Table", func(t *testing.T) {
		env := newTestEnv(t, nil)

		if err := env.run(t, "search", "Daft Punk One More Time"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "697195462") || !strings.Contains(out, "Around the World") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("No Results", func(t *testing.T) {
		env := newTestEnv(t, nil)

		if err := env.run(t, "search", "nothing here"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(env.output.String(), `No songs found for "nothing here"`) {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("Missing Term", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if err := env.run(t, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestLibraryCommand(t *testing.T) {
	t.Run("Playlists With Tracks", func(t *testing.T) {
		env := newTestEnv(t, nil)

		if err := env.run(t, "library", "playlists", "--tracks", "--json"); err != nil {
			t.Fatalf("library playlists failed: %v", err)
		}

		var listings []map[string]any
		if err := json.Unmarshal(env.output.Bytes(), &listings); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(listings) != 1 || listings[0]["id"] != "p.2" {
			t.Fatalf("unexpected listings %v", listings)
		}
		if tracks, ok := listings[0]["tracks"].([]any); !ok || len(tracks) != 1 {
			t.Errorf("expected one track, got %v", listings[0]["tracks"])
		}
	})

	t.Run("Playlists Table", func(t *testing.T) {
		env := newTestEnv(t, nil)

		if err := env.run(t, "library", "playlists"); err != nil {
			t.Fatalf("library playlists failed: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "Existing") || !strings.Contains(out, "1 playlist in library") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("Songs Across Pages", func(t *testing.T) {
		env := newTestEnv(t, nil)

		if err := env.run(t, "library", "songs"); err != nil {
			t.Fatalf("library songs failed: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "i.1") || !strings.Contains(out, "i.2") || !strings.Contains(out, "2 songs in library") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	env := newTestEnv(t, nil)
	exportPath := filepath.Join(env.dir, "Playlist1.json")
	tu.MustWriteFile(t, exportPath, exportFixture)
	dbPath := filepath.Join(env.dir, "journal.db")

	if err := env.run(t, "import", "--playlists", "Road Trip", "--db", dbPath, exportPath); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	t.Run("Lists Runs", func(t *testing.T) {
		env.output.Reset()
		if err := env.run(t, "history", "--db", dbPath); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "completed") || !strings.Contains(out, "1/1") || !strings.Contains(out, "Playlist1.json") {
			t.Errorf("unexpected history:\n%s", out)
		}
	})

	t.Run("Shows One Run", func(t *testing.T) {
		db, err := shared.OpenJournal(dbPath)
		if err != nil {
			t.Fatalf("failed to open journal: %v", err)
		}
		runs, err := repositories.NewImportRepository(db).List(nil)
		db.Close()
		if err != nil || len(runs) != 1 {
			t.Fatalf("expected one run, got %d (%v)", len(runs), err)
		}

		env.output.Reset()
		if err := env.run(t, "history", "--db", dbPath, "--run", runs[0].ID()); err != nil {
			t.Fatalf("history --run failed: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "Road Trip") || !strings.Contains(out, "p.new") {
			t.Errorf("unexpected run detail:\n%s", out)
		}
	})

	t.Run("Invalid Status", func(t *testing.T) {
		if err := env.run(t, "history", "--db", dbPath, "--status", "done"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Unknown Run", func(t *testing.T) {
		if err := env.run(t, "history", "--db", dbPath, "--run", "nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("No Journal Configured", func(t *testing.T) {
		if err := env.run(t, "history"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestConfigCommand(t *testing.T) {
	t.Run("Init Creates File Once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		if err := newTestApp(runner).Run(t.Context(), []string{"spta", "-c", path, "config", "init"}); err != nil {
			t.Fatalf("config init failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := newTestApp(runner).Run(t.Context(), []string{"spta", "-c", path, "config", "init"}); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("Show Masks Token", func(t *testing.T) {
		path := writeConfigFile(t, `{"appleMusicUserToken":"secret-token-1234","appleMusicStorefront":"us"}`)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})

		if err := newTestApp(runner).Run(t.Context(), []string{"spta", "--config", path, "config", "show"}); err != nil {
			t.Fatalf("config show failed: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, `"appleMusicUserToken": "********1234"`) || !strings.Contains(out, `"appleMusicStorefront": "us"`) {
			t.Errorf("unexpected output:\n%s", out)
		}
		if strings.Contains(out, "secret-token") {
			t.Error("token must not be printed")
		}
	})

	t.Run("Show Creates Default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})

		if err := newTestApp(runner).Run(t.Context(), []string{"spta", "-c", path, "config", "show"}); err != nil {
			t.Fatalf("config show failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), `"appleMusicStorefront": "no"`) {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}
