// Package messaging defines the queue abstraction used to move lifecycle
// events between the runtime core and its consumers.
package messaging

import "context"

// Vendor names a queue implementation.
type Vendor string

// Queue is a typed message queue.
type Queue[T any] interface {
	// Publish enqueues a payload.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or the context ends.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a consumed queue item awaiting acknowledgement.
type Message[T any] interface {
	// T returns the payload.
	T() *T

	// Ack marks the message successfully processed.
	Ack() error

	// Nack reports a processing failure; the queue may retry or dead-letter
	// the message depending on its configuration.
	Nack(err error) error
}
