package opticalflow

import (
	"context"

	"github.com/golang/geo/r2"

	"go.viam.com/opticalflow/calib"
	"go.viam.com/opticalflow/internal/parallel"
	"go.viam.com/opticalflow/rimage"
)

// divergenceGuard is the magnitude beyond which a Gauss-Newton increment is
// considered diverged (spec.md §4.3 step 4: "‖δ‖_∞ ≥ 10^6").
const divergenceGuard = 1e6

// borderMargin is the minimum distance a warp's translation must keep from
// every image edge after composing an increment (spec.md §4.3 step 6).
const borderMargin = 2.0

// TrackPoint refines warp in place across the pyramid from its coarsest to
// its finest level using the given reference patch stack, returning false on
// any level's failure (spec.md §4.3 "track_point").
func TrackPoint(pyr *rimage.Pyramid, stack patchStack, warp *Warp, maxIterations int) bool {
	for level := pyr.NumLevels() - 1; level >= 0; level-- {
		if level >= len(stack) || stack[level] == nil || !stack[level].valid {
			return false
		}
		scale := rimage.PyramidScale(level)
		scaled := warp.ScaleTranslation(1 / scale)
		if !trackAtLevel(pyr.At(level), stack[level], &scaled, maxIterations) {
			return false
		}
		*warp = scaled.ScaleTranslation(scale)
	}
	return true
}

// trackAtLevel runs inverse-compositional Gauss-Newton for up to
// maxIterations steps at a single pyramid level (spec.md §4.3 "track_at_level").
func trackAtLevel(img *rimage.Image16, rp *refPatch, warp *Warp, maxIterations int) bool {
	for iter := 0; iter < maxIterations; iter++ {
		res, ok := rp.residual(img, *warp)
		if !ok {
			return false
		}
		delta := rp.solveIncrement(res)
		if !finiteIncrement(delta) || incrementInfNorm(delta) >= divergenceGuard {
			return false
		}
		next := warp.Compose(delta)
		if !img.InBoundsWithMargin(toRimagePoint(next.Translation), borderMargin) {
			return false
		}
		*warp = next
	}
	return true
}

// TrackBidirectional attempts a forward track from camSrc to camDst and
// validates it with a backward re-track, accepting only round-trips within
// maxRecoveredDist2 squared pixels (spec.md §4.3 "track_bidirectional").
func TrackBidirectional(
	pyrSrc, pyrDst *rimage.Pyramid,
	stack patchStack,
	warpSrc Warp,
	camSrc, camDst int,
	rig *calib.Rig,
	depthPrior float64,
	guessType MatchingGuessType,
	maxIterations int,
	maxRecoveredDist2 float64,
) (Warp, bool) {
	warpDst := warpSrc
	var offset r2.Point
	if camSrc != camDst && guessType != SamePixel && rig != nil {
		delta, ok := rig.ViewOffset(warpSrc.Translation, depthPrior, camSrc, camDst)
		if ok {
			offset = delta
			warpDst.Translation = warpDst.Translation.Add(offset)
		}
	}

	if !pyrDst.At(0).InBoundsWithMargin(toRimagePoint(warpDst.Translation), borderMargin) {
		return Warp{}, false
	}

	if !TrackPoint(pyrDst, stack, &warpDst, maxIterations) {
		return Warp{}, false
	}

	warpBack := warpDst
	warpBack.Translation = warpBack.Translation.Sub(offset)
	if !TrackPoint(pyrSrc, stack, &warpBack, maxIterations) {
		return Warp{}, false
	}

	diff := warpBack.Translation.Sub(warpSrc.Translation)
	if diff.X*diff.X+diff.Y*diff.Y >= maxRecoveredDist2 {
		return Warp{}, false
	}
	return warpDst, true
}

// TrackJob is one keypoint's tracking work item for TrackPoints.
type TrackJob struct {
	ID    uint64
	Warp  Warp
	Stack patchStack
}

// TrackResult is the outcome of tracking one keypoint.
type TrackResult struct {
	ID      uint64
	Warp    Warp
	Success bool
}

// TrackPointsBidirectional runs TrackBidirectional for every job in parallel,
// using the work-stealing range partitioner (spec.md §4.7, §5: "the
// per-keypoint tracking loop is the hot path... embarrassingly parallel...
// no lock taken in the inner loop"). Used both for temporal tracking
// (camSrc == camDst, Δ == 0) and for stereo matching (camSrc == 0, camDst ==
// j), matching the Pipeline Driver's track step which routes both through
// the same bidirectional primitive. Results are written into a pre-sized
// slice indexed by job position, never a shared hash map, eliminating any
// need for per-write locking (spec.md §9 design note on the concurrent map).
func TrackPointsBidirectional(
	pyrSrc, pyrDst *rimage.Pyramid,
	jobs []TrackJob,
	camSrc, camDst int,
	rig *calib.Rig,
	depthPrior float64,
	guessType MatchingGuessType,
	maxIterations int,
	maxRecoveredDist2 float64,
) []TrackResult {
	results := make([]TrackResult, len(jobs))
	_ = parallel.GroupWorkParallel(context.Background(), len(jobs),
		func(groupSize int) {},
		func(groupNum, groupSize, from, to int) (parallel.MemberWorkFunc, parallel.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				job := jobs[workNum]
				warp, ok := TrackBidirectional(
					pyrSrc, pyrDst, job.Stack, job.Warp,
					camSrc, camDst, rig, depthPrior, guessType,
					maxIterations, maxRecoveredDist2,
				)
				results[workNum] = TrackResult{ID: job.ID, Warp: warp, Success: ok}
			}, nil
		},
	)
	return results
}
