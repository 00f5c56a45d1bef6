package events

import "context"

// EventPublisher receives a ResolvedEvent each time the strategy cache stores
// a type pair for the first time. Cache hits never reach it.
type EventPublisher interface {
	PublishResolved(ctx context.Context, event *ResolvedEvent) error
}

// NoOpPublisher drops resolution events. mapperd uses it when it runs
// without a COMMS connection.
type NoOpPublisher struct{}

func (p *NoOpPublisher) PublishResolved(_ context.Context, _ *ResolvedEvent) error {
	return nil
}

// CallbackPublisher forwards resolution events to fn, which lets embedders
// and tests observe first resolutions in process.
type CallbackPublisher struct {
	fn func(ctx context.Context, event *ResolvedEvent) error
}

func NewCallbackPublisher(fn func(ctx context.Context, event *ResolvedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{fn: fn}
}

// PublishResolved returns whatever fn returns.
func (p *CallbackPublisher) PublishResolved(ctx context.Context, event *ResolvedEvent) error {
	return p.fn(ctx, event)
}
