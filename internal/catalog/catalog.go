// Package catalog lists every handler package the workers can discover.
package catalog

import (
	"pubsub/internal/consumers"
	"pubsub/internal/consumers/secondary"
	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/registry"
	"pubsub/internal/temporal"
)

// New returns the catalog of handler packages. Package names are the
// directory names under internal/, so DISCOVERY_PACKAGES=consumers loads
// both packages and consumers/secondary loads only the secondary one.
func New(s temporal.Settings) registry.Catalog {
	return registry.Catalog{
		"consumers": consumers.Handlers,
		"consumers/secondary": func() ([]pubsub.HandlerDescriptor, error) {
			return secondary.Handlers(s.SecondaryTaskQueue)
		},
	}
}
