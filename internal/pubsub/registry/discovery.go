package registry

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"pubsub/internal/pubsub"
)

// Loader returns the handlers defined by one package.
type Loader func() ([]pubsub.HandlerDescriptor, error)

// Catalog maps package names (slash separated, e.g. "consumers/secondary")
// to their loaders. It is assembled once at startup.
type Catalog map[string]Loader

// Discover loads every catalog package under the given roots and registers
// each handler that declares an event type. A root matches itself and every
// package nested below it. Packages that are missing, fail or panic are
// logged and skipped so the rest still register.
func (c Catalog) Discover(logger *zap.Logger, roots ...string) *Registry {
	b := NewBuilder()
	c.DiscoverInto(b, logger, roots...)
	return b.Build()
}

// DiscoverInto is Discover into an existing builder.
func (c Catalog) DiscoverInto(b *Builder, logger *zap.Logger, roots ...string) {
	logger = logger.With(zap.Strings("roots", roots))

	for _, pkg := range c.packages(logger, roots) {
		handlers, err := c.load(pkg)
		if err != nil {
			logger.Warn("skipping handler package", zap.String("package", pkg), zap.Error(err))
			continue
		}

		for _, h := range handlers {
			if h.EventType == "" {
				logger.Debug("handler has no subscription", zap.String("package", pkg), zap.String("handler", h.Name))
				continue
			}
			if err := b.Register(h.EventType, h); err != nil {
				logger.Warn("skipping handler", zap.String("package", pkg), zap.String("handler", h.Name), zap.Error(err))
				continue
			}
			logger.Debug("registered handler",
				zap.String("package", pkg),
				zap.String("handler", h.Name),
				zap.String("event_type", h.EventType),
				zap.String("queue", h.Queue),
			)
		}
	}
}

// packages returns the sorted, de-duplicated packages under roots.
func (c Catalog) packages(logger *zap.Logger, roots []string) []string {
	names := slices.Sorted(maps.Keys(c))
	seen := make(map[string]struct{})
	var out []string

	for _, root := range roots {
		root = strings.Trim(root, "/ ")
		matched := false
		for _, name := range names {
			if root != "" && name != root && !strings.HasPrefix(name, root+"/") {
				continue
			}
			matched = true
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
		if !matched {
			logger.Warn("no handler packages found", zap.String("root", root))
		}
	}
	slices.Sort(out)

	return out
}

func (c Catalog) load(pkg string) (handlers []pubsub.HandlerDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()

	loader := c[pkg]
	if loader == nil {
		return nil, fmt.Errorf("no loader for package %s", pkg)
	}

	return loader()
}
