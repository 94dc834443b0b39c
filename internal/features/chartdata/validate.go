package chartdata

import "go-insight/internal/features/query"

// IsValid is the pre-render gate: it checks that a transformed payload
// satisfies the structural contract of its visualization kind. Loading,
// error and empty states bypass the check because no payload is expected
// to be well-formed yet. A false result routes to the distinct
// "invalid data format" state, never to the error or empty states.
func IsValid(kind query.VisualizationKind, s *WidgetRenderState) bool {
	if s.IsLoading || s.Error != "" || s.IsEmpty {
		return true
	}
	if s.Payload == nil {
		return false
	}
	p := s.Payload

	switch kind {
	case query.VisNumber:
		return p.Value != nil

	case query.VisTimeSeries:
		if len(p.Series) == 0 {
			return false
		}
		for _, point := range p.Series {
			if len(point.Values) == 0 {
				return false
			}
			for _, v := range point.Values {
				if v.Label == "" {
					return false
				}
			}
		}
		return true

	case query.VisBarList:
		if len(p.Bars) == 0 {
			return false
		}
		for _, e := range p.Bars {
			if e.Name == "" {
				return false
			}
		}
		return true

	case query.VisUsage:
		if len(p.Usage) == 0 {
			return false
		}
		for _, s := range p.Usage {
			if s.Name == "" {
				return false
			}
		}
		return true

	case query.VisLatency:
		if len(p.Latency) == 0 {
			return false
		}
		for _, pt := range p.Latency {
			if pt.Date == "" {
				return false
			}
			if pt.P95 == nil && pt.P50 == nil {
				return false
			}
		}
		return true

	case query.VisCostTable:
		// An empty cost table is valid.
		for _, r := range p.CostRows {
			if r.Model == "" {
				return false
			}
		}
		return true

	default:
		return true
	}
}
