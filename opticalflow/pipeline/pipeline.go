// Package pipeline couples the tracker core in go.viam.com/opticalflow to a
// single background worker, a bounded input queue, an unbounded output
// queue, and a latest-wins depth-guess side channel (spec.md §4.7, §5).
package pipeline

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"go.viam.com/utils"

	"go.viam.com/opticalflow/calib"
	"go.viam.com/opticalflow/opticalflow"
	"go.viam.com/opticalflow/rimage"
)

// inputQueueCapacity is the bounded input queue depth (spec.md §4.7: "input
// queue of frame bundles (capacity 10, blocking push)").
const inputQueueCapacity = 10

// CameraFrame is one camera's raw payload for a single timestamp (spec.md §6
// "img_data: [per-camera { img: Image<u16> | null, exposure, ... }]"). A nil
// Image signals a missing camera for this frame (spec.md §7 "MissingFrame").
type CameraFrame struct {
	Image    *rimage.Image16
	Exposure float64
}

// Input is one timestamp's frame bundle (spec.md §6 "input"). A nil *Input
// pushed through PushInput is the end-of-stream sentinel.
type Input struct {
	TimestampNS int64
	Cameras     []*CameraFrame
	Masks       [][]opticalflow.Mask
}

// Output is one timestamp's tracked keypoints plus provenance (spec.md §6
// "output"). A nil *Output popped from the pipeline signals end-of-stream.
type Output struct {
	TimestampNS int64
	Keypoints   []opticalflow.CameraKeypoints
	InputImages *Input
	DepthGuess  float64
}

// outputQueue is an unbounded FIFO guarded by a condition variable (spec.md
// §4.7/§6: "output queue (unbounded; back-pressure handled by consumer)"). A
// fixed-capacity channel can only ever be practically large, not truly
// unbounded, so growth is owned by the queue itself rather than a channel
// buffer, unlike the teacher's fixed-capacity `data.Collector.queue`.
type outputQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  []*Output
}

func newOutputQueue() *outputQueue {
	q := &outputQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *outputQueue) push(o *Output) {
	q.mu.Lock()
	q.buf = append(q.buf, o)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a result is available.
func (q *outputQueue) pop() *Output {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 {
		q.cond.Wait()
	}
	o := q.buf[0]
	q.buf = q.buf[1:]
	return o
}

// depthChannel is the single-valued, latest-wins side channel of spec.md §6
// ("input_depth: single-valued latest-wins channel of f64").
type depthChannel struct {
	mu    sync.Mutex
	value float64
	fresh bool
}

func (d *depthChannel) push(v float64) {
	d.mu.Lock()
	d.value, d.fresh = v, true
	d.mu.Unlock()
}

// drainLatest implements the worker's "non-blocking try-pop loop drains
// latest value" (spec.md §4.7 step 1): it returns the most recently pushed
// value and whether any value arrived since the previous drain.
func (d *depthChannel) drainLatest() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.value, d.fresh
	d.fresh = false
	return v, ok
}

// Pipeline is one long-lived worker over one tracker instance (spec.md §5:
// "one dedicated thread per tracker instance"), adapted from the teacher's
// data.Collector capture/queue/done-channel shape (data/collector.go),
// generalized from a timer-driven capture loop to a push-driven input queue.
type Pipeline struct {
	cfg    opticalflow.Config
	rig    *calib.Rig
	logger golog.Logger
	runID  string

	input  chan *Input
	output *outputQueue
	depth  *depthChannel
	done   chan struct{}

	// Worker-owned state: only the goroutine started by New ever touches
	// these fields (spec.md §5: "no external caller reads these").
	frameCounter  int
	bootstrapped  bool
	store         *opticalflow.PatchStore
	detector      *opticalflow.Detector
	matcher       *opticalflow.StereoMatcher
	prevPyramids  []*rimage.Pyramid
	prevCameras   []opticalflow.CameraKeypoints
	curDepthGuess float64
}

// New builds a Pipeline for cfg and rig (rig may be nil, or hold a single
// camera, for a monocular tracker) and starts its background worker.
func New(cfg opticalflow.Config, rig *calib.Rig, logger golog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:           cfg,
		rig:           rig,
		logger:        logger,
		runID:         uuid.NewString(),
		input:         make(chan *Input, inputQueueCapacity),
		output:        newOutputQueue(),
		depth:         &depthChannel{},
		done:          make(chan struct{}),
		store:         opticalflow.NewPatchStore(cfg.PatchStoreCapacity),
		detector:      opticalflow.NewDetector(cfg),
		matcher:       opticalflow.NewStereoMatcher(cfg, rig),
		curDepthGuess: cfg.MatchingDefaultDepth,
	}
	utils.PanicCapturingGo(p.run)
	return p
}

// PushInput blocking-pushes a frame bundle onto the input queue, or nil to
// signal end-of-stream (spec.md §4.7, §6).
func (p *Pipeline) PushInput(in *Input) {
	p.input <- in
}

// PushDepth updates the latest-wins depth-guess side channel (spec.md §6).
func (p *Pipeline) PushDepth(d float64) {
	p.depth.push(d)
}

// Pop blocks for the next result bundle, returning nil once end-of-stream
// has been reached (spec.md §6: "A null sentinel signals end-of-stream").
// Callers must stop calling Pop after observing a nil result.
func (p *Pipeline) Pop() *Output {
	return p.output.pop()
}

// Done is closed once the worker has observed end-of-stream and exited.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline) run() {
	defer close(p.done)
	for {
		if v, ok := p.depth.drainLatest(); ok {
			p.curDepthGuess = v
		}

		in := <-p.input
		if in == nil {
			p.logger.Infow("optical flow pipeline reached end of stream", "run_id", p.runID)
			p.output.push(nil)
			return
		}
		p.processFrame(in)
	}
}

// processFrame implements spec.md §4.7 step 3: build pyramids, then either
// bootstrap (first frame: detect + stereo-seed + epipolar filter) or track
// (subsequent frames: temporal-track existing keypoints per camera, then
// detect + stereo-seed + epipolar filter the newly detected ones), per
// SPEC_FULL.md §8/§10's explicit bootstrap-vs-track branch.
func (p *Pipeline) processFrame(in *Input) {
	if !allCamerasPresent(in.Cameras) {
		p.logger.Debugw("dropping frame with a missing camera payload",
			"run_id", p.runID, "t_ns", in.TimestampNS)
		return
	}

	// Config.Levels is the pyramid depth L (spec.md §6: "optical_flow_levels
	// (int, ≥0) — pyramid depth"); a depth of L means L+1 levels, 0..L
	// (spec.md §4.1: "given image of dimensions (w,h) and L+1 levels").
	pyrs := make([]*rimage.Pyramid, len(in.Cameras))
	for i, cf := range in.Cameras {
		pyrs[i] = rimage.NewPyramid(cf.Image, p.cfg.Levels+1)
	}

	camsOut := make([]opticalflow.CameraKeypoints, len(pyrs))
	for i := range camsOut {
		camsOut[i] = make(opticalflow.CameraKeypoints)
	}

	if p.bootstrapped {
		p.trackExisting(pyrs, camsOut)
	}
	p.detectAndSeed(pyrs, in, camsOut)
	p.bootstrapped = true

	for _, cam := range camsOut {
		for id := range cam {
			p.store.Touch(id, p.frameCounter)
		}
	}
	p.store.Evict(p.frameCounter, p.cfg.EvictAfterFrames)

	p.prevPyramids = pyrs
	p.prevCameras = camsOut

	if p.frameCounter%p.cfg.SkipFrames == 0 {
		p.output.push(&Output{
			TimestampNS: in.TimestampNS,
			Keypoints:   camsOut,
			InputImages: in,
			DepthGuess:  p.curDepthGuess,
		})
	}
	p.frameCounter++
}

// trackExisting temporally tracks every keypoint already live in camera k
// from the previous pyramid into the new one, for every camera (spec.md
// §4.7 step 3 "track": "for each camera k, track existing keypoints in that
// camera from old pyramid to new pyramid (cam_src = cam_dst = k, so Δ = 0)").
func (p *Pipeline) trackExisting(pyrs []*rimage.Pyramid, camsOut []opticalflow.CameraKeypoints) {
	for k := range pyrs {
		if k >= len(p.prevCameras) || len(p.prevCameras[k]) == 0 {
			continue
		}
		prevCam := p.prevCameras[k]
		jobs := make([]opticalflow.TrackJob, 0, len(prevCam))
		for id, rec := range prevCam {
			stack, ok := p.store.Get(id)
			if !ok {
				continue
			}
			jobs = append(jobs, opticalflow.TrackJob{ID: id, Warp: rec.Pose, Stack: stack})
		}
		results := opticalflow.TrackPointsBidirectional(
			p.prevPyramids[k], pyrs[k], jobs, k, k, p.rig, p.curDepthGuess,
			p.cfg.MatchingGuessType, p.cfg.MaxIterations, p.cfg.MaxRecoveredDist2,
		)
		for _, r := range results {
			if !r.Success {
				continue
			}
			camsOut[k][r.ID] = &opticalflow.KeypointRecord{
				ID:                r.ID,
				Pose:              r.Warp,
				Descriptor:        prevCam[r.ID].Descriptor,
				DetectedByOptFlow: true,
			}
		}
	}
}

// detectAndSeed seeds new keypoints in empty grid cells of camera 0, then
// stereo-matches only those newly detected points into every other camera
// (spec.md §4.4, §4.5; SPEC_FULL.md §10's Open Question decision: existing
// cam-1+ tracks come from trackExisting, never re-matched here, preserving
// the original ordering so a re-detected keypoint cannot collide spatially
// with one still being tracked).
func (p *Pipeline) detectAndSeed(pyrs []*rimage.Pyramid, in *Input, camsOut []opticalflow.CameraKeypoints) {
	existing := make([]r2.Point, 0, len(camsOut[0]))
	for _, rec := range camsOut[0] {
		existing = append(existing, rec.Pose.Translation)
	}
	var masks []opticalflow.Mask
	if len(in.Masks) > 0 {
		masks = in.Masks[0]
	}

	detections, err := p.detector.Detect(pyrs[0], masks, existing)
	if err != nil {
		p.logger.Warnw("detection failed", "run_id", p.runID, "error", err)
		return
	}
	for _, d := range detections {
		p.store.Insert(d.Record.ID, d.Stack, p.frameCounter)
		camsOut[0][d.Record.ID] = d.Record
	}
	if len(detections) == 0 {
		return
	}

	descByID := make(map[uint64][4]uint64, len(detections))
	for _, d := range detections {
		descByID[d.Record.ID] = d.Record.Descriptor
	}

	for cam := 1; cam < len(pyrs); cam++ {
		results := p.matcher.MatchCamera(pyrs[0], pyrs[cam], detections, cam, p.curDepthGuess)
		for _, r := range results {
			camsOut[cam][r.ID] = &opticalflow.KeypointRecord{
				ID:                r.ID,
				Pose:              r.Warp,
				Descriptor:        descByID[r.ID],
				DetectedByOptFlow: true,
			}
		}
	}
}

func allCamerasPresent(cams []*CameraFrame) bool {
	if len(cams) == 0 {
		return false
	}
	for _, c := range cams {
		if c == nil || c.Image == nil {
			return false
		}
	}
	return true
}
