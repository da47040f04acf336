package opticalflow

import (
	"sync"

	"github.com/golang/geo/r2"

	"go.viam.com/opticalflow/rimage"
)

// defaultPatchStoreCapacity mirrors the original implementation's upfront
// reservation for roughly 3000 keypoint patch stacks, avoiding map growth
// churn in the hot per-frame path (see SPEC_FULL.md's supplemented features).
const defaultPatchStoreCapacity = 3000

// patchStack is one reference patch per pyramid level for a single keypoint.
type patchStack []*refPatch

func (s patchStack) valid() bool {
	for _, p := range s {
		if p == nil || !p.valid {
			return false
		}
	}
	return len(s) > 0
}

// PatchStore maps keypoint id to its patch stack. It is append-only during
// normal operation (spec.md §4.2): insert once at detection, read many times
// during tracking. Evict is an additive extension (spec.md §9) the pipeline
// may call once per frame to bound memory; it is never invoked from inside
// the tracking hot path itself.
type PatchStore struct {
	mu       sync.RWMutex
	stacks   map[uint64]patchStack
	lastSeen map[uint64]int
}

// NewPatchStore builds an empty store pre-sized for capacity keypoints. A
// capacity of 0 uses the default of 3000.
func NewPatchStore(capacity int) *PatchStore {
	if capacity <= 0 {
		capacity = defaultPatchStoreCapacity
	}
	return &PatchStore{
		stacks:   make(map[uint64]patchStack, capacity),
		lastSeen: make(map[uint64]int, capacity),
	}
}

// Insert adds a new keypoint's patch stack. Called once per keypoint at
// detection time; inserting over an existing id is a programming error the
// caller must not make (ids are monotonic and never reused).
func (s *PatchStore) Insert(id uint64, stack patchStack, frameNum int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stacks[id] = stack
	s.lastSeen[id] = frameNum
}

// Get returns the read-only patch stack for id. ok is false if id is unknown.
func (s *PatchStore) Get(id uint64) (patchStack, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stack, ok := s.stacks[id]
	return stack, ok
}

// Touch records that id was observed in the given frame, used by Evict to
// decide which stacks have gone stale.
func (s *PatchStore) Touch(id uint64, frameNum int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[id] = frameNum
}

// Evict drops every patch stack whose id was not touched within the last
// maxAbsentFrames frames as of currentFrame. maxAbsentFrames <= 0 disables
// eviction entirely, preserving the original's append-only-forever behavior.
func (s *PatchStore) Evict(currentFrame, maxAbsentFrames int) {
	if maxAbsentFrames <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, seen := range s.lastSeen {
		if currentFrame-seen > maxAbsentFrames {
			delete(s.stacks, id)
			delete(s.lastSeen, id)
		}
	}
}

// newPatchStack builds a reference patch for pos at every level of pyr,
// scaling pos by 1/2^level per level (spec.md §4.4 step 4: "create the patch
// stack by sampling the reference patch at every level using pos / 2^level").
func newPatchStack(pyr *rimage.Pyramid, pos r2.Point) patchStack {
	stack := make(patchStack, pyr.NumLevels())
	for l := 0; l < pyr.NumLevels(); l++ {
		scale := rimage.PyramidScale(l)
		levelPos := r2.Point{X: pos.X / scale, Y: pos.Y / scale}
		stack[l] = newRefPatch(pyr.At(l), levelPos)
	}
	return stack
}

// Len returns the number of live patch stacks.
func (s *PatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stacks)
}
