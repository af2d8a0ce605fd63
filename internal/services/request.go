package services

import (
	"net/url"
	"strconv"
)

// Object references a catalog or library resource in request bodies.
type Object struct {
	ID   string     `json:"id"`
	Type ObjectType `json:"type"`
}

// Objects is the relationship payload wrapping a list of references.
type Objects struct {
	Data []Object `json:"data"`
}

// PlaylistCreationAttributes omits the description when empty.
type PlaylistCreationAttributes struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type PlaylistCreationRelationships struct {
	Tracks *Objects `json:"tracks,omitempty"`
	Parent *Objects `json:"parent,omitempty"`
}

// LibraryPlaylistCreationRequest is the body of POST /v1/me/library/playlists.
type LibraryPlaylistCreationRequest struct {
	Attributes    PlaylistCreationAttributes     `json:"attributes"`
	Relationships *PlaylistCreationRelationships `json:"relationships,omitempty"`
}

// NewPlaylistCreationRequest builds a creation body, attaching tracks only when there are any.
func NewPlaylistCreationRequest(name, description string, tracks []Object) LibraryPlaylistCreationRequest {
	req := LibraryPlaylistCreationRequest{
		Attributes: PlaylistCreationAttributes{Name: name, Description: description},
	}
	if len(tracks) > 0 {
		req.Relationships = &PlaylistCreationRelationships{Tracks: &Objects{Data: tracks}}
	}
	return req
}

// SearchQuery holds the catalog search parameters.
//
// Term and Types are required. Types accepts a single resource type per call.
type SearchQuery struct {
	Term   string
	Locale string // language tag sent as "l"
	Limit  int
	Offset int
	Types  ObjectType
	With   string // e.g. "topResults"
}

// Values encodes the query, leaving zero-valued optional fields out.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	v.Set("term", q.Term)
	v.Set("types", q.Types.String())
	if q.Locale != "" {
		v.Set("l", q.Locale)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.With != "" {
		v.Set("with", q.With)
	}
	return v
}
