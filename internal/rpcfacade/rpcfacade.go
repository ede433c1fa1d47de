// Package rpcfacade provides an in-process stand-in for the out-of-scope
// XML-RPC master/slave layer: just enough of that collaborator's call
// surface to drive the Node registry's reconciliation algorithm from
// tests and the CLI demo without a real master process. Fake performs
// no network calls of its own — it is a direct wrapper around a
// *node.Node.
package rpcfacade

import "github.com/tenzoki/rosnode/internal/node"

// Fake is the in-process RPC facade. It implements the handful of
// master/slave-API calls this runtime actually needs: the slave-side
// publisherUpdate notification, plus the read-only introspection calls
// a real XML-RPC slave server would also expose.
type Fake struct {
	n *node.Node
}

// New wraps n in a Fake facade.
func New(n *node.Node) *Fake {
	return &Fake{n: n}
}

// PublisherUpdate is the slave API call a ROS master makes when a
// topic's publisher list changes. It forwards directly to the node
// registry's reconciliation; see node.Node.PublisherUpdate for the
// additive-only semantics.
func (f *Fake) PublisherUpdate(topic string, uris []string) error {
	return f.n.PublisherUpdate(topic, uris)
}

// MasterURI reports the master URI this node was configured with.
func (f *Fake) MasterURI() string {
	return f.n.MasterURI()
}

// TopicPort reports the port a locally-advertised topic is listening
// on, for a master (or, here, a test) that wants to hand the URI out
// to a prospective subscriber.
func (f *Fake) TopicPort(topic string) (int, bool) {
	return f.n.TopicPort(topic)
}

// SnapshotSubscriptions and SnapshotPublications expose the same
// introspection a getBusInfo-style master call would surface.
func (f *Fake) SnapshotSubscriptions() []node.SubscriptionSnapshot {
	return f.n.SnapshotSubscriptions()
}

func (f *Fake) SnapshotPublications() []node.PublicationSnapshot {
	return f.n.SnapshotPublications()
}
