package core

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/jabolina/go-gossip/internal/telemetry"
	"github.com/jabolina/go-gossip/pkg/gossip/helper"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"io"
	"sync"
)

var ErrTransportShutdown = errors.New("transport shutdown")

// Inbound is a value read by the transport. Exactly one of the
// fields is set.
type Inbound struct {
	Envelope types.Envelope

	// Decoding failed, nothing else will be published after it.
	Err error
}

// The transport interface providing the communication primitives
// used by the peer.
type Transport interface {
	// Listen for envelopes that arrive on the transport.
	// The channel is closed when the input ends.
	Listen() <-chan Inbound

	// Send a single envelope. The envelope is written and flushed
	// before the method returns.
	Send(envelope types.Envelope) error

	// Close the transport for sending and receiving messages.
	Close() error
}

// StreamTransport is an instance of the Transport interface that
// reads envelopes from a byte stream and writes them to another.
//
// The input is a sequence of JSON values, whitespace between values
// is irrelevant. The output is one encoded envelope per line.
type StreamTransport struct {
	// Where the values are read from.
	reader io.Reader

	// Synchronize writes, so lines are never interleaved.
	mutex sync.Mutex

	// Buffered output, flushed after each envelope.
	writer *bufio.Writer

	// Channel to publish the decoded envelopes.
	producer chan Inbound

	// Transport context for bounding the lifetime.
	ctx context.Context

	// Used to close the transport.
	cancel context.CancelFunc

	// Inactivated once the transport is closed.
	running helper.Flag

	log hclog.Logger
}

// NewStreamTransport creates the transport and start polling the
// reader for envelopes using the invoker.
func NewStreamTransport(ctx context.Context, reader io.Reader, writer io.Writer, log hclog.Logger, invoker helper.Invoker) *StreamTransport {
	ctx, cancel := context.WithCancel(ctx)
	s := &StreamTransport{
		reader:   reader,
		writer:   bufio.NewWriter(writer),
		producer: make(chan Inbound),
		ctx:      ctx,
		cancel:   cancel,
		log:      log.Named("transport"),
	}
	if err := invoker.Spawn(s.poll); err != nil {
		s.log.Error("failed starting to read input", "error", err)
		close(s.producer)
	}
	return s
}

// StreamTransport implements Transport interface.
func (s *StreamTransport) Listen() <-chan Inbound {
	return s.producer
}

// StreamTransport implements Transport interface.
func (s *StreamTransport) Send(envelope types.Envelope) error {
	if !s.running.IsActive() {
		return ErrTransportShutdown
	}

	data, err := types.Encode(envelope)
	if err != nil {
		return fmt.Errorf("failed encoding %s to %s: %w", kindOf(envelope), envelope.Destination, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}

	telemetry.EnvelopesSent.WithLabelValues(kindOf(envelope)).Inc()
	return nil
}

// StreamTransport implements Transport interface.
// The polling routine stops as soon as it is not blocked reading.
func (s *StreamTransport) Close() error {
	if !s.running.Inactivate() {
		return nil
	}
	s.cancel()
	return nil
}

// This method will keep polling until the input ends, a value fails
// to decode or the transport context is cancelled.
// Values are decoded one at a time and published to the listener.
func (s *StreamTransport) poll() {
	defer close(s.producer)
	dec := json.NewDecoder(s.reader)
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("input stream finished")
				return
			}
			s.publish(Inbound{Err: fmt.Errorf("%w: %v", types.ErrMalformed, err)})
			return
		}

		envelope, err := types.Decode(raw)
		if err != nil {
			s.publish(Inbound{Err: err})
			return
		}

		if !s.publish(Inbound{Envelope: envelope}) {
			return
		}
	}
}

func (s *StreamTransport) publish(in Inbound) bool {
	select {
	case <-s.ctx.Done():
		return false
	case s.producer <- in:
		return true
	}
}

func kindOf(envelope types.Envelope) string {
	if envelope.Body.Payload == nil {
		return "unknown"
	}
	return string(envelope.Body.Payload.Kind())
}
