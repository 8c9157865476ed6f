package catalog

import (
	"context"

	"github.com/kilianp07/classplan/core/factory"
)

// Source produces complete catalog snapshots.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Catalog, error)
}

var sourceRegistry = factory.NewRegistry[Source]()

// RegisterSource adds a source factory identified by name.
func RegisterSource(name string, f factory.Factory[Source]) error {
	return sourceRegistry.Register(name, f)
}

// NewSource creates a Source from its module configuration.
func NewSource(cfg factory.ModuleConfig) (Source, error) {
	return sourceRegistry.Create(cfg)
}

// StaticSource serves a fixed snapshot.
type StaticSource struct {
	Catalog *Catalog
}

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) Fetch(context.Context) (*Catalog, error) { return s.Catalog, nil }

// SourceNames lists the registered source types.
func SourceNames() []string { return sourceRegistry.Names() }
