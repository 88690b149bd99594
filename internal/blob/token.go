// Package blob implements the chat:// indirection layer: opaque word tokens
// standing in for binary or resource content that cannot be inlined in a
// given message role, resolved against the session's tool-result history.
package blob

import (
	"math/rand/v2"
	"strings"
)

// Scheme is the URI scheme for blob references inside string-typed,
// URI-formatted tool arguments. chat://<token> is the only wire
// representation of a cross-call binary/resource reference.
const Scheme = "chat://"

// Categories under which the adapter records minted tokens in a tool
// result's metadata.
const (
	CategoryImages    = "images"
	CategoryAudio     = "audio"
	CategoryResources = "resources"
)

// Entry is one recorded token in a tool result's metadata category list.
// Value holds the media source (data URL) for images/audio or the text body
// for resources.
type Entry struct {
	Token    string `json:"token"`
	Value    string `json:"src"`
	MimeType string `json:"mimeType,omitempty"`
}

// words is the pool for token generation. Tokens are four dash-joined words:
// short enough to survive model round-trips verbatim, and unique enough that
// collisions within one session are a non-issue (64^4 combinations). Not
// cryptographic, by contract.
var words = []string{
	"amber", "anchor", "aspen", "badger", "basil", "beacon", "birch", "bison",
	"breeze", "canyon", "cedar", "cliff", "clover", "cobalt", "comet", "coral",
	"crane", "crest", "dawn", "delta", "dune", "ember", "falcon", "fern",
	"fjord", "flint", "gale", "glade", "grove", "harbor", "hazel", "heron",
	"indigo", "ivy", "jasper", "juniper", "kestrel", "lagoon", "larch", "lark",
	"lichen", "linden", "lotus", "maple", "marsh", "meadow", "mesa", "moss",
	"north", "ocean", "onyx", "opal", "osprey", "otter", "pebble", "pine",
	"quartz", "raven", "reef", "ridge", "river", "sage", "slate", "willow",
}

// MintToken generates a fresh token, e.g. "cedar-lark-opal-ridge".
func MintToken() string {
	parts := make([]string, 4)
	for i := range parts {
		parts[i] = words[rand.IntN(len(words))]
	}
	return strings.Join(parts, "-")
}

// TokenFromURI extracts the token from a chat:// reference.
// Returns ("", false) when s does not carry the scheme.
func TokenFromURI(s string) (string, bool) {
	if !strings.HasPrefix(s, Scheme) {
		return "", false
	}
	return s[len(Scheme):], true
}
