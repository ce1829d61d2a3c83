package dataset

import (
	"time"

	"caseatlas/pkg/frame"
)

// Node is a lazily materialized dataset node. Concrete nodes are
// created through a Registry and are singletons per parameter tuple.
type Node interface {
	// Key returns the node's canonical registry identity.
	Key() string

	// Frame returns the node's contents, materializing them on first
	// use. The call blocks until materialization finishes; there is
	// no cancellation. A failure propagates to the caller and leaves
	// the node empty for a later retry.
	Frame() (*frame.Frame, error)
}

func frameStrings(n Node, column string) ([]string, error) {
	f, err := n.Frame()
	if err != nil {
		return nil, err
	}
	return f.Strings(column)
}

func frameTimes(n Node, column string) ([]time.Time, error) {
	f, err := n.Frame()
	if err != nil {
		return nil, err
	}
	return f.Times(column)
}

func frameInts(n Node, column string) ([]int64, error) {
	f, err := n.Frame()
	if err != nil {
		return nil, err
	}
	return f.Ints(column)
}
