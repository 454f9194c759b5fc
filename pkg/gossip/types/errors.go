package types

import "errors"

var (
	// The bytes are not a well-formed envelope: invalid JSON, a
	// missing required field, a wrong field type or an unknown tag.
	ErrMalformed = errors.New("malformed envelope")

	// The envelope is well-formed but not acceptable in the current
	// node state, e.g. anything before init or a reply to a request
	// this node never issued.
	ErrProtocolViolation = errors.New("protocol violation")
)
