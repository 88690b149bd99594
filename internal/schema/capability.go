package schema

// Capabilities declares what content a session's consuming client can accept
// inline in a user message. The adapter consults them to decide between the
// synthetic inline-attachment exchange and the blob-token fallback.
type Capabilities struct {
	Image bool
	Audio bool
}

// TextOnly is the safe default for line-oriented clients.
func TextOnly() Capabilities { return Capabilities{} }
