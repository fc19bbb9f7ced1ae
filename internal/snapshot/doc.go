// Package snapshot encodes streak state as a resumable blob.
//
// A snapshot is canonical JSON:
//
//	{"streaks":[{"item":"A","length":3,"start":1},{"break":2,"item":"B","length":1,"start":1}],"version":1}
//
// Entries are ordered by (start, item) and object keys by UTF-16 code
// units, so equal states always encode to identical bytes. The "break" key
// is omitted while a streak is unbroken.
//
// Hash computes a content address over those bytes with domain
// separation, SHA256("streaks/state/v1" + 0x00 + blob), which the store
// records next to every saved state.
package snapshot
