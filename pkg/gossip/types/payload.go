package types

// Kind is the snake_case tag carried by the body "type" field.
type Kind string

const (
	KindInit        Kind = "init"
	KindInitOk      Kind = "init_ok"
	KindEcho        Kind = "echo"
	KindEchoOk      Kind = "echo_ok"
	KindGenerate    Kind = "generate"
	KindGenerateOk  Kind = "generate_ok"
	KindBroadcast   Kind = "broadcast"
	KindBroadcastOk Kind = "broadcast_ok"
	KindRead        Kind = "read"
	KindReadOk      Kind = "read_ok"
	KindTopology    Kind = "topology"
	KindTopologyOk  Kind = "topology_ok"
)

// Payload is the closed set of message kinds exchanged with
// clients and peers. Only the variants declared in this
// package implement it.
type Payload interface {
	// The tag written into the body "type" field.
	Kind() Kind

	// Fields that must be present when decoding the variant.
	required() []string
}

// Handshake sent by the harness before anything else.
type Init struct {
	NodeID  NodeID   `json:"node_id"`
	NodeIDs []NodeID `json:"node_ids"`
}

type InitOk struct{}

type Echo struct {
	Echo string `json:"echo"`
}

type EchoOk struct {
	Echo string `json:"echo"`
}

type Generate struct{}

type GenerateOk struct {
	ID string `json:"id"`
}

// Broadcast a single value to the cluster. Sent by clients
// and also between peers while disseminating.
type Broadcast struct {
	Message int64 `json:"message"`
}

type BroadcastOk struct{}

type Read struct{}

type ReadOk struct {
	Messages []int64 `json:"messages"`
}

// Topology holds the cluster-wide adjacency. A node only
// acts on its own entry.
type Topology struct {
	Topology map[NodeID][]NodeID `json:"topology"`
}

type TopologyOk struct{}

func (Init) Kind() Kind        { return KindInit }
func (InitOk) Kind() Kind      { return KindInitOk }
func (Echo) Kind() Kind        { return KindEcho }
func (EchoOk) Kind() Kind      { return KindEchoOk }
func (Generate) Kind() Kind    { return KindGenerate }
func (GenerateOk) Kind() Kind  { return KindGenerateOk }
func (Broadcast) Kind() Kind   { return KindBroadcast }
func (BroadcastOk) Kind() Kind { return KindBroadcastOk }
func (Read) Kind() Kind        { return KindRead }
func (ReadOk) Kind() Kind      { return KindReadOk }
func (Topology) Kind() Kind    { return KindTopology }
func (TopologyOk) Kind() Kind  { return KindTopologyOk }

func (Init) required() []string        { return []string{"node_id", "node_ids"} }
func (InitOk) required() []string      { return nil }
func (Echo) required() []string        { return []string{"echo"} }
func (EchoOk) required() []string      { return []string{"echo"} }
func (Generate) required() []string    { return nil }
func (GenerateOk) required() []string  { return []string{"id"} }
func (Broadcast) required() []string   { return []string{"message"} }
func (BroadcastOk) required() []string { return nil }
func (Read) required() []string        { return nil }
func (ReadOk) required() []string      { return []string{"messages"} }
func (Topology) required() []string    { return []string{"topology"} }
func (TopologyOk) required() []string  { return nil }

// IsReply returns true for the variants that only answer a request.
func IsReply(p Payload) bool {
	switch p.(type) {
	case InitOk, EchoOk, GenerateOk, BroadcastOk, ReadOk, TopologyOk:
		return true
	default:
		return false
	}
}
