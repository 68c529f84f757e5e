// Package cache memoizes interpolation results per slice key.
package cache

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/golang/groupcache/lru"
	"github.com/tj/go-rle"

	"seginterp/internal/models"
)

// plane groups the entries of one orientation and time step
type plane struct {
	orientation models.Orientation
	timeStep    int
}

// entry is a cached result with its mask run-length encoded
type entry struct {
	lower  int
	upper  int
	width  int
	height int
	pixels []byte
}

// Cache holds at most one interpolation result per slice key. It is not safe
// for concurrent use.
type Cache struct {
	entries *lru.Cache

	// byPlane indexes live keys so invalidation does not scan the LRU list
	byPlane map[plane]map[models.SliceKey]struct{}
}

// New creates a cache bounded to maxEntries results; 0 means unbounded
func New(maxEntries int) *Cache {
	c := &Cache{
		entries: lru.New(maxEntries),
		byPlane: make(map[plane]map[models.SliceKey]struct{}),
	}
	c.entries.OnEvicted = func(key lru.Key, _ interface{}) {
		k := key.(models.SliceKey)
		p := plane{k.Orientation, k.TimeStep}
		delete(c.byPlane[p], k)
		if len(c.byPlane[p]) == 0 {
			delete(c.byPlane, p)
		}
	}
	return c
}

// Len returns the number of cached results
func (c *Cache) Len() int { return c.entries.Len() }

// Put stores a result, replacing any previous one for the same key
func (c *Cache) Put(r models.InterpolationResult) {
	pix := make([]int64, len(r.Mask.Pix))
	for i, fg := range r.Mask.Pix {
		if fg {
			pix[i] = 1
		}
	}

	c.entries.Add(r.Key, &entry{
		lower:  r.Lower,
		upper:  r.Upper,
		width:  r.Mask.Width,
		height: r.Mask.Height,
		pixels: rle.EncodeInt64(pix),
	})

	p := plane{r.Key.Orientation, r.Key.TimeStep}
	if c.byPlane[p] == nil {
		c.byPlane[p] = make(map[models.SliceKey]struct{})
	}
	c.byPlane[p][r.Key] = struct{}{}
}

// Get returns the cached result for key. Each call decodes a fresh mask.
func (c *Cache) Get(key models.SliceKey) (models.InterpolationResult, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return models.InterpolationResult{}, false
	}
	e := v.(*entry)

	mask, err := e.decode()
	if err != nil {
		glog.Warningf("cache: dropping undecodable entry %s: %v", key, err)
		c.entries.Remove(key)
		return models.InterpolationResult{}, false
	}
	return models.InterpolationResult{
		Key:   key,
		Lower: e.lower,
		Upper: e.upper,
		Mask:  mask,
	}, true
}

func (e *entry) decode() (*models.Mask, error) {
	pix, err := rle.DecodeInt64(e.pixels)
	if err != nil {
		return nil, err
	}
	if len(pix) != e.width*e.height {
		return nil, fmt.Errorf("decoded %d pixels, expected %dx%d", len(pix), e.width, e.height)
	}
	m := models.NewMask(e.width, e.height)
	for i, value := range pix {
		m.Pix[i] = value != 0
	}
	return m, nil
}

// Invalidate removes the result for key
func (c *Cache) Invalidate(key models.SliceKey) {
	c.entries.Remove(key)
}

// InvalidateAll removes every result
func (c *Cache) InvalidateAll() {
	c.entries.Clear()
	c.byPlane = make(map[plane]map[models.SliceKey]struct{})
}

// InvalidateSlice removes every result of orientation o and time step t whose
// bounding range [Lower, Upper] contains index. That covers a bounding slice
// whose pixels changed as well as a slice inside a gap gaining content.
// It returns the number of removed results.
func (c *Cache) InvalidateSlice(o models.Orientation, index, t int) int {
	var stale []models.SliceKey
	for key := range c.byPlane[plane{o, t}] {
		v, ok := c.entries.Get(key)
		if !ok {
			continue
		}
		if e := v.(*entry); index >= e.lower && index <= e.upper {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		c.entries.Remove(key)
	}
	if len(stale) > 0 {
		glog.V(2).Infof("cache: %s slice %d at t%d invalidated %d results", o, index, t, len(stale))
	}
	return len(stale)
}

// InvalidateTimeStep removes every result of time step t
func (c *Cache) InvalidateTimeStep(t int) int {
	var stale []models.SliceKey
	for p, keys := range c.byPlane {
		if p.timeStep != t {
			continue
		}
		for key := range keys {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		c.entries.Remove(key)
	}
	return len(stale)
}
