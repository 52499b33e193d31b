package coordinator

import (
	"time"

	"arinfer/pkg/types"
)

// NodeLister is optionally implemented by a NodeSelector to expose membership.
type NodeLister interface {
	DiscoverNodes() []types.NodeCapabilities
}

// Status builds a status response for /v1/status.
func (c *Coordinator) Status() types.StatusResponse {
	resp := types.StatusResponse{
		InFlight:      c.registry.InFlight(),
		Executing:     len(c.slots),
		MaxInflight:   cap(c.slots),
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}
	if l, ok := c.selector.(NodeLister); ok {
		resp.Nodes = len(l.DiscoverNodes())
	}
	return resp
}

// Nodes lists known nodes when the selector exposes them.
func (c *Coordinator) Nodes() []types.NodeCapabilities {
	if l, ok := c.selector.(NodeLister); ok {
		return l.DiscoverNodes()
	}
	return nil
}
