package cache

import (
	"sync/atomic"
	"time"
)

// Session carries one caller's invalidation watermark. A bin's Expire call
// advances the watermark; subsequent reads by the same session treat
// temporary entries created before it as misses, while other sessions keep
// reading them. The caller owns persistence of the watermark across
// requests (for example inside its session store) via Watermark and
// SetWatermark.
//
// The zero value is ready to use and has no watermark set.
type Session struct {
	watermark atomic.Int64
}

// NewSession returns a session with no watermark set.
func NewSession() *Session {
	return &Session{}
}

// Watermark returns the current watermark, or the zero time when none has
// been set.
func (s *Session) Watermark() time.Time {
	v := s.watermark.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

// SetWatermark records t as the boundary before which this session must
// treat temporary entries as invalid.
func (s *Session) SetWatermark(t time.Time) {
	s.watermark.Store(t.Unix())
}

// watermarkUnix tolerates a nil session, which reads as "no watermark".
func (s *Session) watermarkUnix() int64 {
	if s == nil {
		return 0
	}
	return s.watermark.Load()
}
