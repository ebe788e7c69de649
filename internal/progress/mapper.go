package progress

import "math"

// StageMapper converts a stage's local 0-100 progress into the operation's
// global 0-100 progress. Each operation owns its own mapper: the mapper
// remembers the highest value it has produced so far, and that memory must not
// leak between unrelated operations.
//
// This is the first of two independent monotonicity layers; the Tracker is the
// second. Both hold even when a caller supplies an out-of-order update.
type StageMapper struct {
	kind Kind
	last int
}

// NewStageMapper creates a mapper for one operation of the given kind.
func NewStageMapper(kind Kind) *StageMapper {
	return &StageMapper{kind: kind}
}

// Map returns the global progress for local progress within a stage.
//
// Terminal error/cancelled stages and stages unknown for this kind freeze the
// value at the last remembered global progress. Completed always maps to 100.
func (m *StageMapper) Map(stage Status, local float64) int {
	switch stage {
	case StatusError, StatusCancelled:
		return m.last
	case StatusCompleted:
		m.last = 100
		return 100
	}

	r, ok := StageRangeFor(m.kind, stage)
	if !ok {
		return m.last
	}

	local = math.Max(0, math.Min(100, local))
	mapped := float64(r.Lo) + (local/100)*float64(r.Hi-r.Lo)

	global := int(math.Round(mapped))
	if global < m.last {
		global = m.last
	}
	m.last = global
	return global
}

// Last returns the last remembered global progress.
func (m *StageMapper) Last() int { return m.last }
