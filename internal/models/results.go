package models

// PlaylistStatus is the outcome of importing one playlist.
type PlaylistStatus string

const (
	PlaylistCreated       PlaylistStatus = "created"
	PlaylistSkippedDry    PlaylistStatus = "skipped_dry"
	PlaylistAlreadyExists PlaylistStatus = "already_exists"
	PlaylistAppended      PlaylistStatus = "appended"
	PlaylistFailed        PlaylistStatus = "failed"
)

// TrackStatus is the outcome of reconciling one playlist item.
type TrackStatus string

const (
	TrackFound      TrackStatus = "found"
	TrackNotFound   TrackStatus = "not_found"
	TrackSkipped    TrackStatus = "skipped"     // episodes and local tracks
	TrackSearchFail TrackStatus = "search_fail" // the catalog search itself failed
)

// TrackResult records how a single playlist item was reconciled.
type TrackResult struct {
	Position   int         `json:"position"`
	Kind       ItemKind    `json:"-"`
	KindName   string      `json:"kind"`
	Item       string      `json:"item"`
	SearchTerm string      `json:"search_term,omitempty"`
	Status     TrackStatus `json:"status"`
	CatalogID  string      `json:"catalog_id,omitempty"`
	Artist     string      `json:"artist,omitempty"`
	Name       string      `json:"name,omitempty"`
	URL        string      `json:"url,omitempty"`
	Score      float64     `json:"score,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// PlaylistResult records the outcome of one playlist and all of its items.
type PlaylistResult struct {
	Name       string         `json:"name"`
	Status     PlaylistStatus `json:"status"`
	PlaylistID string         `json:"playlist_id,omitempty"`
	URL        string         `json:"url,omitempty"`
	Message    string         `json:"message,omitempty"`
	Tracks     []TrackResult  `json:"tracks"`
}

// Count returns how many items ended with status.
func (r PlaylistResult) Count(status TrackStatus) int {
	n := 0
	for _, t := range r.Tracks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Matched returns the number of items that were found in the catalog.
func (r PlaylistResult) Matched() int { return r.Count(TrackFound) }
