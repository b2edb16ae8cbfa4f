/*
Package randx generates identifiers for the relay.
*/
package randx

import "github.com/google/uuid"

// ConnIDPrefix marks identifiers issued for transport connections.
const ConnIDPrefix = "conn_"

// ConnID returns a new random connection identifier.
func ConnID() string {
	return ConnIDPrefix + uuid.NewString()
}
