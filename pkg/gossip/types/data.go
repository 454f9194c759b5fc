package types

// The name for a participant inside the cluster.
// Nodes are named by the harness with values like "n1",
// while clients use names like "c1". The value is opaque
// and only compared for equality.
type NodeID string

// Identifier of a request originated by a sender.
// Each sender issues monotonically increasing values and
// never reuses one.
type MessageID uint64

// Envelope is the outer record exchanged between nodes
// and clients. A new envelope is built for every send and
// is never changed after that.
type Envelope struct {
	// Who sent the envelope.
	Source NodeID

	// Who must receive the envelope.
	Destination NodeID

	// Correlation identifiers and the payload.
	Body Body
}

// Body carries the correlation identifiers and exactly
// one payload variant.
type Body struct {
	// Identifier of this message, if the sender gave one.
	ID *MessageID

	// Identifier of the request this message answers.
	// Absent for fresh requests.
	InReplyTo *MessageID

	// The semantic message.
	Payload Payload
}

// Reply creates the envelope answering this one, sent by the
// given node back to the source. The in_reply_to field echoes the
// request identifier and the caller provides the fresh identifier.
func (e Envelope) Reply(from NodeID, id MessageID, payload Payload) Envelope {
	return Envelope{
		Source:      from,
		Destination: e.Source,
		Body: Body{
			ID:        MessageIDRef(id),
			InReplyTo: e.Body.ID,
			Payload:   payload,
		},
	}
}

// MessageIDRef returns a reference to a copy of the given identifier.
func MessageIDRef(id MessageID) *MessageID {
	return &id
}
