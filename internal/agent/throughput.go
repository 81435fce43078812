package agent

import "github.com/tinytelemetry/hostmon/internal/hoststats"

// minElapsed keeps two readings taken at (almost) the same instant from
// producing an enormous rate.
const minElapsed = 0.001

// Rates derives receive/transmit throughput in kilobits per second from two
// successive counter readings. With no previous reading both rates are 0.
// A counter that went backwards (reset or wrap) yields 0 for that direction.
func Rates(prev *hoststats.Counters, cur hoststats.Counters) (rxKbps, txKbps float64) {
	if prev == nil {
		return 0, 0
	}
	seconds := cur.At.Sub(prev.At).Seconds()
	if seconds < minElapsed {
		seconds = minElapsed
	}
	return kbps(prev.RxBytes, cur.RxBytes, seconds), kbps(prev.TxBytes, cur.TxBytes, seconds)
}

func kbps(prev, cur uint64, seconds float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) * 8 / 1000 / seconds
}
