package ports

import "go.trai.ch/armada/internal/core/domain"

// Notifier delivers transition events to external observers. Implementations
// must preserve publish order per mission and deliver at-least-once to
// attached subscribers.
//
//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Publish(event domain.Event)
}
