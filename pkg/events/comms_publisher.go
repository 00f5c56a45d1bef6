package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/type-mapper/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the global resolution subject (MAPPER_EVENT_SUBJECT).
	GlobalSubject string
	// Pattern is the granular subject pattern with {source} and {destination}
	// placeholders. Empty means "<GlobalSubject>.{source}.{destination}".
	Pattern string
}

// CommsPublisher publishes resolution events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
	pattern       string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := commsutil.SubjectResolvedEvent
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	pattern := commsutil.ResolvedSubjectPattern(globalSubject)
	if opts != nil && opts.Pattern != "" {
		pattern = opts.Pattern
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject, pattern: pattern}
}

// PublishResolved publishes a ResolvedEvent to the pair's granular subject and
// to the global subject.
func (p *CommsPublisher) PublishResolved(ctx context.Context, event *ResolvedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granular := commsutil.ExpandResolvedSubject(p.pattern, event.Source, event.Destination)
	for _, subject := range []string{granular, p.globalSubject} {
		if err := p.nc.Publish(subject, data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
			return fmt.Errorf("%s - publish %s: %w", commsPublisherLogPrefix, subject, err)
		}
	}

	slog.Debug(fmt.Sprintf("%s - Published resolution of %s -> %s", commsPublisherLogPrefix, event.Source, event.Destination))
	return nil
}
