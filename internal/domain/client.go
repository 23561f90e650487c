package domain

import (
	"sort"
	"strings"
)

// Client is one live transport session and the nickname it registered.
type Client struct {
	ConnectionID string `json:"connectionId"`
	Nickname     string `json:"nickname"`
}

// PairKey derives the order-independent conversation key for two nicknames:
// the sorted pair joined with "#". Both directions of a conversation map to
// the same key.
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "#")
}
