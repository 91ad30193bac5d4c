// Package protocol owns the wire contract for jsonmux messages.
//
// Ownership boundary:
// - the Message shape and its reserved fields
// - correlation id generation
// - frame primitives (subpackage frame)
package protocol
