package models

import "regexp"

// spotifyIDPattern matches the backend's ID validator: 22 base-62 characters.
var spotifyIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// ValidSpotifyID reports whether s is a well-formed Spotify track ID.
func ValidSpotifyID(s string) bool {
	return spotifyIDPattern.MatchString(s)
}
