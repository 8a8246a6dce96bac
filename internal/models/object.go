// Package models contains data structures shared by the gateway, the transfer engine and the handlers
package models

import "time"

// ObjectEntry represents a single object discovered in a bucket listing
type ObjectEntry struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// IsFolder reports whether the entry is a zero-byte folder placeholder (a key ending in "/")
func (o ObjectEntry) IsFolder() bool {
	return len(o.Key) > 0 && o.Key[len(o.Key)-1] == '/'
}

// ObjectPage is one page of a bucket listing.
// An empty NextToken means the listing is exhausted.
type ObjectPage struct {
	Objects   []ObjectEntry
	NextToken string
}
