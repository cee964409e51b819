package service

import "tickalert/internal/domain/model"

const (
	DefaultConditionFlag = 2
	DefaultMinVolume     = 50000
)

// SpikeRule flags a trade whose first condition flag equals ConditionFlag (by absolute value)
// and whose volume strictly exceeds MinVolume. Stateless.
type SpikeRule struct {
	ConditionFlag int
	MinVolume     int64
}

func DefaultSpikeRule() SpikeRule {
	return SpikeRule{ConditionFlag: DefaultConditionFlag, MinVolume: DefaultMinVolume}
}

func (r SpikeRule) Detect(t model.TradeEvent) bool {
	if t.Volume <= 0 || t.Volume <= r.MinVolume {
		return false
	}
	return abs(t.FirstCondition()) == r.ConditionFlag
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
