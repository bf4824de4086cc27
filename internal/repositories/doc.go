// package repositories implements SQLite-backed storage for the client's
// local state: the session credential (single slot), settings such as the
// server address override, and a snapshot of the backend library for
// offline listing.
//
// None of this state is authoritative for acquisition status; the backend
// is. The library table is a cache refreshed on every successful listing.
package repositories
