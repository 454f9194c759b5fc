package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Header fields shared by every body. The field order here is
// the order written on the wire.
type header struct {
	ID        *MessageID `json:"msg_id"`
	InReplyTo *MessageID `json:"in_reply_to"`
	Type      Kind       `json:"type"`
}

// The envelope as it is read from the wire, before the body
// is inspected.
type wireEnvelope struct {
	Source      *NodeID         `json:"src"`
	Destination *NodeID         `json:"dest"`
	Body        json.RawMessage `json:"body"`
}

type outboundEnvelope struct {
	Source      NodeID `json:"src"`
	Destination NodeID `json:"dest"`
	Body        Body   `json:"body"`
}

// Decodes the variant fields of the given kind.
var decoders = map[Kind]func(json.RawMessage) (Payload, error){
	KindInit:        decodeAs[Init],
	KindInitOk:      decodeAs[InitOk],
	KindEcho:        decodeAs[Echo],
	KindEchoOk:      decodeAs[EchoOk],
	KindGenerate:    decodeAs[Generate],
	KindGenerateOk:  decodeAs[GenerateOk],
	KindBroadcast:   decodeAs[Broadcast],
	KindBroadcastOk: decodeAs[BroadcastOk],
	KindRead:        decodeAs[Read],
	KindReadOk:      decodeAs[ReadOk],
	KindTopology:    decodeAs[Topology],
	KindTopologyOk:  decodeAs[TopologyOk],
}

// Decode parses a single envelope.
// Any failure is reported wrapping ErrMalformed.
func Decode(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if w.Source == nil || w.Destination == nil || isAbsent(w.Body) {
		return Envelope{}, fmt.Errorf("%w: envelope requires src, dest and body", ErrMalformed)
	}

	var body Body
	if err := json.Unmarshal(w.Body, &body); err != nil {
		if !errors.Is(err, ErrMalformed) {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Envelope{}, err
	}

	return Envelope{
		Source:      *w.Source,
		Destination: *w.Destination,
		Body:        body,
	}, nil
}

// Encode serializes the envelope without a trailing newline.
func Encode(envelope Envelope) ([]byte, error) {
	return json.Marshal(outboundEnvelope{
		Source:      envelope.Source,
		Destination: envelope.Destination,
		Body:        envelope.Body,
	})
}

// MarshalJSON writes the header and inlines the payload fields
// at the same object level.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.Payload == nil {
		return nil, fmt.Errorf("body without payload")
	}

	h, err := json.Marshal(header{ID: b.ID, InReplyTo: b.InReplyTo, Type: b.Payload.Kind()})
	if err != nil {
		return nil, err
	}

	p, err := json.Marshal(b.Payload)
	if err != nil {
		return nil, err
	}

	if len(p) < 2 || p[0] != '{' || p[len(p)-1] != '}' {
		return nil, fmt.Errorf("payload %s is not an object", b.Payload.Kind())
	}

	// Empty variants contribute no fields.
	if len(bytes.TrimSpace(p[1:len(p)-1])) == 0 {
		return h, nil
	}

	out := make([]byte, 0, len(h)+len(p))
	out = append(out, h[:len(h)-1]...)
	out = append(out, ',')
	out = append(out, p[1:]...)
	return out, nil
}

// UnmarshalJSON reads the header, then picks the variant by
// the type tag and reads the remaining fields into it.
func (b *Body) UnmarshalJSON(data []byte) error {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("%w: body: %v", ErrMalformed, err)
	}

	if h.Type == "" {
		return fmt.Errorf("%w: body without type", ErrMalformed)
	}

	decode, ok := decoders[h.Type]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrMalformed, h.Type)
	}

	payload, err := decode(data)
	if err != nil {
		return err
	}

	b.ID = h.ID
	b.InReplyTo = h.InReplyTo
	b.Payload = payload
	return nil
}

func decodeAs[T Payload](data json.RawMessage) (Payload, error) {
	var v T
	if required := v.required(); len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for _, name := range required {
			if isAbsent(fields[name]) {
				return nil, fmt.Errorf("%w: %s requires field %q", ErrMalformed, v.Kind(), name)
			}
		}
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, v.Kind(), err)
	}
	return v, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
