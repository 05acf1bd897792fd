package flow

import "time"

func (s *UnitTestSuite) TestTTLExpiredEntryWaitsForSweep() {
	now := time.Unix(1_700_000_000, 0)
	SetTimeNowFn(func() time.Time { return now })
	c := NewTTL[string, string]()
	c.Set("key1", "value1", time.Minute)

	now = now.Add(time.Minute + time.Second)
	v, ok := c.Take("key1")
	s.False(ok)
	s.Equal("", v)
	s.Equal(1, c.Len(), "a late Take must not drop the entry")

	s.Equal(map[string]string{"key1": "value1"}, c.Sweep())
	s.Equal(0, c.Len())
}

func (s *UnitTestSuite) TestTTLTakeExpired() {
	now := time.Unix(1_700_000_000, 0)
	SetTimeNowFn(func() time.Time { return now })
	c := NewTTL[int, string]()
	c.Set(1, "prompt", time.Minute)

	_, ok := c.TakeExpired(1)
	s.False(ok, "live entries are not handed out")
	s.Equal(1, c.Len())

	now = now.Add(2 * time.Minute)
	v, ok := c.TakeExpired(1)
	s.True(ok)
	s.Equal("prompt", v)
	s.Empty(c.Sweep())
	_, ok = c.TakeExpired(1)
	s.False(ok)
}

func (s *UnitTestSuite) TestTTLTakeOnce() {
	c := NewTTL[int, string]()
	c.Set(1, "prompt", time.Minute)
	v, ok := c.Take(1)
	s.True(ok)
	s.Equal("prompt", v)
	_, ok = c.Take(1)
	s.False(ok)
	s.Equal(0, c.Len())
}

func (s *UnitTestSuite) TestTTLSweep() {
	now := time.Unix(1_700_000_000, 0)
	SetTimeNowFn(func() time.Time { return now })
	c := NewTTL[int, string]()
	c.Set(1, "old", time.Minute)
	c.Set(2, "new", time.Hour)

	now = now.Add(2 * time.Minute)
	expired := c.Sweep()
	s.Equal(map[int]string{1: "old"}, expired)
	s.Equal(1, c.Len())

	_, ok := c.Take(1)
	s.False(ok)
	v, ok := c.Take(2)
	s.True(ok)
	s.Equal("new", v)
}
