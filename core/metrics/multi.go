package metrics

import "errors"

// MultiSink fans samples out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards to every sink and joins their errors.
func (m *MultiSink) RecordSolve(s SolveSample) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordSolve(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordCatalogRefresh forwards to the sinks that support it.
func (m *MultiSink) RecordCatalogRefresh(s CatalogRefreshSample) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(CatalogRefreshRecorder); ok {
			if err := rec.RecordCatalogRefresh(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
