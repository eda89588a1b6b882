package fxmetrics

import (
	"strings"

	"github.com/devopsext/vmclient/metrics"
)

// Endpoint is a read-only view rendering a registry as exposition text.
type Endpoint struct {
	registry *metrics.Registry
}

func NewEndpoint(registry *metrics.Registry) *Endpoint {
	return &Endpoint{registry: registry}
}

// Render returns the full exposition text of the registry.
func (e *Endpoint) Render() (string, error) {

	var sb strings.Builder
	if err := e.registry.Write(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
