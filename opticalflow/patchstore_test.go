package opticalflow

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/opticalflow/rimage"
)

// TestPatchStoreImmutability reproduces property test #2 from spec.md §8:
// the patch stack retrieved at any later frame equals the stack retrieved
// at detection time, since the store never rewrites an entry.
func TestPatchStoreImmutability(t *testing.T) {
	img := syntheticImage(200, 200)
	pyr := rimage.NewPyramid(img, 3)
	stack := buildStack(pyr, r2.Point{X: 100, Y: 100})
	test.That(t, stack.valid(), test.ShouldBeTrue)

	store := NewPatchStore(0)
	store.Insert(42, stack, 0)

	for frame := 1; frame <= 5; frame++ {
		got, ok := store.Get(42)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, len(got), test.ShouldEqual, len(stack))
		for l := range stack {
			test.That(t, got[l], test.ShouldEqual, stack[l])
		}
	}
}

func TestPatchStoreGetUnknownID(t *testing.T) {
	store := NewPatchStore(0)
	_, ok := store.Get(7)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPatchStoreDefaultCapacity(t *testing.T) {
	store := NewPatchStore(0)
	test.That(t, store.Len(), test.ShouldEqual, 0)
}

// TestPatchStoreEvictDropsStaleEntries exercises the additive eviction
// extension (spec.md §9, SPEC_FULL.md §10): an id untouched for more than
// maxAbsentFrames consecutive frames is dropped.
func TestPatchStoreEvictDropsStaleEntries(t *testing.T) {
	img := syntheticImage(200, 200)
	pyr := rimage.NewPyramid(img, 2)
	stack := buildStack(pyr, r2.Point{X: 50, Y: 50})

	store := NewPatchStore(0)
	store.Insert(1, stack, 0)
	store.Insert(2, stack, 0)
	store.Touch(1, 5)

	store.Evict(10, 3)

	_, ok1 := store.Get(1)
	test.That(t, ok1, test.ShouldBeTrue)
	_, ok2 := store.Get(2)
	test.That(t, ok2, test.ShouldBeFalse)
}

// TestPatchStoreEvictDisabledByDefault confirms maxAbsentFrames <= 0
// preserves the original's forever-append behavior.
func TestPatchStoreEvictDisabledByDefault(t *testing.T) {
	img := syntheticImage(200, 200)
	pyr := rimage.NewPyramid(img, 2)
	stack := buildStack(pyr, r2.Point{X: 50, Y: 50})

	store := NewPatchStore(0)
	store.Insert(1, stack, 0)
	store.Evict(1000, 0)

	_, ok := store.Get(1)
	test.That(t, ok, test.ShouldBeTrue)
}
