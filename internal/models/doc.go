// package models defines the data model shared between the mree client and the backend.
//
// Field names and JSON tags mirror the backend's wire schema: tracks are
// addressed by their Spotify ID everywhere (search, download, stream), and
// the backend is the only authority for a track's download status. The
// client never flips acquisition state locally; it re-fetches.
package models
