// Package events re-exports the platform event bus so internal modules only
// import internal/events.
package events

import (
	platformevents "devis_backend/platform/events"
	"devis_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
