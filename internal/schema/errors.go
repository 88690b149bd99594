package schema

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is returned by the driver when it must send a request
// but the last message is assistant-authored and no pending user-message
// source exists. Fatal to the turn; the session coordinator surfaces it and
// re-arms for fresh input.
var ErrProtocolViolation = errors.New("last message must be user or tool authored and no message source is available")

// UnknownToolError marks a tool call whose name is not in the registry.
// Non-fatal: it surfaces as an error-flagged ToolResult.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Name)
}

// MimeTypeMismatchError marks a blob token that resolved to a resource of the
// wrong mime type. Fatal for that specific tool call only.
type MimeTypeMismatchError struct {
	Token string
	Want  string
	Got   string
}

func (e *MimeTypeMismatchError) Error() string {
	return fmt.Sprintf("resource %q has mime type %q, expected %q", e.Token, e.Got, e.Want)
}

// UnsupportedContentTypeError marks a tool result content part the adapter
// cannot convert. Fatal to the whole turn: silently dropping content would
// mislead the conversation.
type UnsupportedContentTypeError struct {
	Type PartType
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported tool result content type %q", e.Type)
}
