package replay

import (
	"errors"
	"fmt"
)

// ErrInvalidHeader means the buffer is too short or the magic signature
// does not match. Fatal for the input; nothing later in the buffer is
// inspected.
var ErrInvalidHeader = errors.New("invalid replay header")

// ErrNoPlayers means the header decoded but no roster entry had a
// non-negative team id.
var ErrNoPlayers = errors.New("no players in replay")

// UnsupportedMapError is a policy filter, not a decode failure: the map
// name was read but is not the supported one.
type UnsupportedMapError struct {
	MapName string
}

func (e *UnsupportedMapError) Error() string {
	return fmt.Sprintf("unsupported map: %s", e.MapName)
}

// ParseError means a required header marker could not be located or its
// bytes could not be decoded as text.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}
