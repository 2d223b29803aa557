package models

import "strconv"

// IndicatorState is the receiver's discrete output: none or one channel active
type IndicatorState uint8

const (
	IndicatorNone IndicatorState = iota
	IndicatorChannel1
	IndicatorChannel2
	IndicatorChannel3
	IndicatorChannel4
)

// IndicatorForChannel maps a zero-based channel index to its state.
// Out-of-range indexes map to IndicatorNone.
func IndicatorForChannel(idx int) IndicatorState {
	if idx < 0 || idx >= Channels {
		return IndicatorNone
	}
	return IndicatorState(idx + 1)
}

// Channel returns the zero-based active channel, if any
func (s IndicatorState) Channel() (int, bool) {
	if s == IndicatorNone || s > IndicatorChannel4 {
		return 0, false
	}
	return int(s) - 1, true
}

func (s IndicatorState) String() string {
	if idx, ok := s.Channel(); ok {
		return "channel-" + strconv.Itoa(idx+1) + "-active"
	}
	return "none-active"
}
