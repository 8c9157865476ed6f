// Package plugins links the built-in catalog sources and metrics sinks into
// the binary. Each implementation registers itself from its init function.
package plugins

import (
	"github.com/kilianp07/classplan/core/catalog"
	coremetrics "github.com/kilianp07/classplan/core/metrics"

	_ "github.com/kilianp07/classplan/infra/catalog/csvfile"
	_ "github.com/kilianp07/classplan/infra/catalog/registrar"
	_ "github.com/kilianp07/classplan/infra/catalog/sqlite"
	_ "github.com/kilianp07/classplan/infra/metrics"
)

// Available lists registered module types by kind.
func Available() map[string][]string {
	return map[string][]string{
		"catalog": catalog.SourceNames(),
		"metrics": coremetrics.SinkNames(),
	}
}
