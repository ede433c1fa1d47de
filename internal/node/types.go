package node

import "github.com/tenzoki/rosnode/internal/transport"

// SubscriptionSnapshot is the RPC-facing view of one subscription: the
// topic, its message type name, the set of publisher URIs currently
// feeding it, and per-URI receive stats.
type SubscriptionSnapshot struct {
	Topic     string
	TypeName  string
	KnownURIs []string
	Stats     map[string]transport.PeerStats
}

// PublicationSnapshot is the RPC-facing view of one publication: the
// topic, its message type name, the port it is advertised on, and
// per-client send stats keyed by a synthetic client ID.
type PublicationSnapshot struct {
	Topic    string
	TypeName string
	Port     int
	Stats    map[string]transport.PeerStats
}
