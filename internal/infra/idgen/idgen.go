// Package idgen creates entity identifiers.
package idgen

import (
	"github.com/google/uuid"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// UUID generates time-ordered UUIDv7 identifiers, so ids sort roughly by
// creation time.
type UUID struct{}

var _ domain.IDGenerator = UUID{}

// NewID returns a new identifier.
func (UUID) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
