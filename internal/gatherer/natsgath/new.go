package natsgath

import (
	"github.com/nats-io/nats.go"
)

// publisher is the part of *nats.Conn the gatherer needs.
type publisher interface {
	Publish(subj string, data []byte) error
}

// New creates a gatherer that streams progress of run runUuid to subject.
func New(nc *nats.Conn, runUuid string, subject string) *NatsGatherer {
	return newGatherer(nc, runUuid, subject)
}

func newGatherer(pub publisher, runUuid string, subject string) *NatsGatherer {
	return &NatsGatherer{
		pub:     pub,
		subject: subject,
		runUuid: runUuid,
	}
}
