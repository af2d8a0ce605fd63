// Package services implements a client for the Apple Music catalog and library API used by the web player.
//
// # Authentication
//
// The API requires two credentials on every request:
//   - Music-User-Token : the long-lived user token copied from a signed-in web player session
//   - Authorization : a short-lived bearer token that is never issued through a public flow
//
// [Bootstrapper] obtains the bearer token by downloading the web player's landing page,
// following its /assets/index-* script and slicing out the JWT that begins with a fixed header.
// The [Client] fetches it once, behind a mutex, and keeps it for its lifetime.
//
// # Retries
//
// Only 5xx responses are retried, with a fixed interval between attempts (cenkalti/backoff constant policy).
// When the attempt budget runs out the last response is decoded and returned as if it had succeeded.
// Transport failures are wrapped in [ErrTransport] and returned immediately.
//
// # Decoding
//
// Every response type embeds [ErrorResponse]. The decoder tries the success shape first and falls back to the
// error envelope, so API failures arrive as data and are checked with [ErrorResponse.Err].
// A body matching neither shape is an [ErrDecode] error.
//
// # Pagination
//
// Response types that expose Items and NextPage satisfy [Page] and can be walked with [FetchAll]:
// library songs, library playlists, playlist tracks and catalog song searches.
package services
