package application

import (
	"context"

	"github.com/rentalflow/service-rental/pkg/kafka"
)

// EventPublisher is the outbound event contract the services need. Satisfied
// by kafka.Producer in production and by in-memory fakes in tests.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}
