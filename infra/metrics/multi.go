package metrics

import coremetrics "github.com/homevolt/dayahead/core/metrics"

// MultiSink fans plan records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlanSummary forwards the summary to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPlanSummary(sum coremetrics.PlanSummary) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlanSummary(sum); err != nil {
			return err
		}
	}
	return nil
}

// RecordSlots forwards per-slot points to sinks that support them.
func (m *MultiSink) RecordSlots(points []coremetrics.SlotPoint) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SlotRecorder); ok {
			if err := rec.RecordSlots(points); err != nil {
				return err
			}
		}
	}
	return nil
}
