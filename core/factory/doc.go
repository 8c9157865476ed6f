// Package factory builds pluggable modules (catalog sources, metrics sinks)
// from configuration. A module is named by a type string and carries a raw
// settings map that its factory decodes into a typed struct:
//
//	_ = catalog.RegisterSource("csv", func(conf map[string]any) (catalog.Source, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return csvfile.New(c.Path), nil
//	})
//	src, err := catalog.NewSource(factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": "sections.csv"}})
package factory
