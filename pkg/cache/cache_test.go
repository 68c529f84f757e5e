package cache

import (
	"testing"

	"seginterp/internal/models"
)

func testResult(o models.Orientation, index, t, lower, upper int) models.InterpolationResult {
	m := models.NewMask(6, 4)
	m.Set(index%6, 1, true)
	m.Set(2, 2, true)
	m.Set(3, 2, true)
	return models.InterpolationResult{
		Key:   models.SliceKey{Orientation: o, Index: index, TimeStep: t},
		Lower: lower,
		Upper: upper,
		Mask:  m,
	}
}

// TestPutGet verifies that stored masks come back bit-identical
func TestPutGet(t *testing.T) {
	c := New(0)
	r := testResult(models.Transversal, 4, 0, 2, 6)
	c.Put(r)

	got, ok := c.Get(r.Key)
	if !ok {
		t.Fatal("Expected cached result, got none")
	}
	if got.Lower != 2 || got.Upper != 6 || got.Key != r.Key {
		t.Errorf("Expected bounds 2..6 for %s, got %d..%d for %s", r.Key, got.Lower, got.Upper, got.Key)
	}
	if !got.Mask.Equal(r.Mask) {
		t.Error("Expected cached mask to equal the stored mask")
	}

	// Mutating a returned mask does not affect the cache
	got.Mask.Set(0, 0, true)
	again, _ := c.Get(r.Key)
	if again.Mask.At(0, 0) {
		t.Error("Expected cached mask to be independent of returned copies")
	}

	if _, ok := c.Get(models.SliceKey{Orientation: models.Transversal, Index: 5}); ok {
		t.Error("Expected miss for unknown key")
	}
}

// TestAtMostOnePerKey verifies that Put replaces an existing entry
func TestAtMostOnePerKey(t *testing.T) {
	c := New(0)
	c.Put(testResult(models.Frontal, 3, 0, 1, 5))
	c.Put(testResult(models.Frontal, 3, 0, 2, 4))

	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
	got, _ := c.Get(models.SliceKey{Orientation: models.Frontal, Index: 3})
	if got.Lower != 2 || got.Upper != 4 {
		t.Errorf("Expected replaced bounds 2..4, got %d..%d", got.Lower, got.Upper)
	}
}

// TestInvalidateSlice verifies dependency-based invalidation
func TestInvalidateSlice(t *testing.T) {
	c := New(0)
	c.Put(testResult(models.Transversal, 3, 0, 2, 5))
	c.Put(testResult(models.Transversal, 4, 0, 2, 5))
	c.Put(testResult(models.Transversal, 8, 0, 6, 10))
	c.Put(testResult(models.Transversal, 3, 1, 2, 5))
	c.Put(testResult(models.Sagittal, 3, 0, 2, 5))

	// Slice 5 bounds the first gap only
	if n := c.InvalidateSlice(models.Transversal, 5, 0); n != 2 {
		t.Errorf("Expected 2 invalidated results, got %d", n)
	}
	if _, ok := c.Get(models.SliceKey{Orientation: models.Transversal, Index: 3}); ok {
		t.Error("Expected result bounded by slice 5 to be gone")
	}
	if _, ok := c.Get(models.SliceKey{Orientation: models.Transversal, Index: 8}); !ok {
		t.Error("Expected unrelated gap to stay cached")
	}
	if _, ok := c.Get(models.SliceKey{Orientation: models.Transversal, Index: 3, TimeStep: 1}); !ok {
		t.Error("Expected other time step to stay cached")
	}
	if _, ok := c.Get(models.SliceKey{Orientation: models.Sagittal, Index: 3}); !ok {
		t.Error("Expected other orientation to stay cached")
	}

	// A slice inside a gap gaining content invalidates that gap
	if n := c.InvalidateSlice(models.Transversal, 7, 0); n != 1 {
		t.Errorf("Expected 1 invalidated result, got %d", n)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 remaining entries, got %d", c.Len())
	}
}

// TestInvalidateTimeStepAndAll covers the bulk invalidations
func TestInvalidateTimeStepAndAll(t *testing.T) {
	c := New(0)
	c.Put(testResult(models.Transversal, 3, 0, 2, 5))
	c.Put(testResult(models.Sagittal, 3, 0, 2, 5))
	c.Put(testResult(models.Transversal, 3, 1, 2, 5))

	if n := c.InvalidateTimeStep(0); n != 2 {
		t.Errorf("Expected 2 invalidated results, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", c.Len())
	}

	c.Invalidate(models.SliceKey{Orientation: models.Transversal, Index: 3, TimeStep: 1})
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}

	c.Put(testResult(models.Frontal, 1, 0, 0, 2))
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after InvalidateAll, got %d entries", c.Len())
	}
	if n := c.InvalidateSlice(models.Frontal, 1, 0); n != 0 {
		t.Errorf("Expected nothing to invalidate, got %d", n)
	}
}

// TestBoundedCache verifies LRU eviction keeps the plane index consistent
func TestBoundedCache(t *testing.T) {
	c := New(2)
	c.Put(testResult(models.Transversal, 1, 0, 0, 2))
	c.Put(testResult(models.Transversal, 3, 0, 2, 4))
	c.Put(testResult(models.Transversal, 5, 0, 4, 6))

	if c.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(models.SliceKey{Orientation: models.Transversal, Index: 1}); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if n := c.InvalidateSlice(models.Transversal, 2, 0); n != 1 {
		t.Errorf("Expected 1 invalidated result after eviction, got %d", n)
	}
}
