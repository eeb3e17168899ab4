// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leadership

import (
	"sync"

	"github.com/decred/dcrd/lru"
)

// ScheduleCache memoizes the per-epoch Schedule derived from a pool
// registry snapshot and a stake distribution, both of which are expensive
// to fold together (every active pool's relative stake share) and are
// needed afresh on every header validated within the epoch. recent tracks
// which epoch numbers are still considered live by LRU recency, bounding
// memory independent of how many epochs the node has processed in its
// lifetime; schedules holds the actual built schedules and is pruned
// opportunistically whenever it grows past the tracked recent set.
type ScheduleCache struct {
	mu        sync.Mutex
	recent    *lru.Cache
	schedules map[uint32]Schedule
	limit     uint
}

// NewScheduleCache returns a cache holding up to limit epochs' schedules.
func NewScheduleCache(limit uint) *ScheduleCache {
	return &ScheduleCache{
		recent:    lru.NewCache(limit),
		schedules: make(map[uint32]Schedule),
		limit:     limit,
	}
}

// Get returns the cached schedule for epoch, if present.
func (c *ScheduleCache) Get(epoch uint32) (Schedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recent.Contains(epoch) {
		return Schedule{}, false
	}
	s, ok := c.schedules[epoch]
	return s, ok
}

// Put records the schedule for epoch, evicting the least-recently-touched
// epoch from the backing map once the cache exceeds its configured limit.
func (c *ScheduleCache) Put(epoch uint32, s Schedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent.Add(epoch)
	c.schedules[epoch] = s
	if uint(len(c.schedules)) > c.limit {
		for e := range c.schedules {
			if !c.recent.Contains(e) {
				delete(c.schedules, e)
			}
		}
	}
}
