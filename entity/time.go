package entity

import (
	"math"
	"strconv"
	"time"
)

// =============================================================================
// TIMESTAMP - Block time in Unix seconds
// =============================================================================

// Timestamp is a block timestamp or a date derived from one, in Unix seconds.
// Zero means "not set".
type Timestamp int64

func (ts Timestamp) IsZero() bool                { return ts == 0 }
func (ts Timestamp) Time() time.Time             { return time.Unix(int64(ts), 0).UTC() }
func (ts Timestamp) Add(seconds int64) Timestamp { return ts + Timestamp(seconds) }

// Offset returns ts + interval*i, the due date of the i-th installment.
// Results past the int64 range are clamped to math.MaxInt64 or math.MinInt64.
func (ts Timestamp) Offset(interval int64, i uint64) Timestamp {
	if interval == 0 || i == 0 {
		return ts
	}
	if i > math.MaxInt64 {
		return clamp(interval)
	}
	n := int64(i)
	step := interval * n
	if step/n != interval {
		return clamp(interval)
	}
	sum := int64(ts) + step
	if (step > 0 && sum < int64(ts)) || (step < 0 && sum > int64(ts)) {
		return clamp(step)
	}
	return Timestamp(sum)
}

func clamp(sign int64) Timestamp {
	if sign < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}

func (ts Timestamp) String() string {
	return strconv.FormatInt(int64(ts), 10)
}

func TimestampFromTime(t time.Time) Timestamp { return Timestamp(t.Unix()) }
