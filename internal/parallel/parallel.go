// Package parallel provides the blocked range partitioner the tracker uses
// to spread per-keypoint work across goroutines without locking. Each
// goroutine gets one fixed contiguous block; there is no work stealing
// between blocks.
package parallel

import (
	"context"
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// Factor controls the number of groups a range is split into. Exposed as a
// var so tests can pin it down to avoid parallelism swamping small inputs.
var Factor = runtime.GOMAXPROCS(0)

func init() {
	if Factor <= 0 {
		Factor = 1
	}
	quarterProcs := float64(Factor) * .25
	if quarterProcs > 8 {
		Factor = int(quarterProcs)
	}
}

type (
	// BeforeGroupWorkFunc executes before any work starts, given the group count.
	BeforeGroupWorkFunc func(groupSize int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done.
	GroupWorkDoneFunc func()
	// GroupWorkFunc determines what work members of one group should do.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel partitions [0, totalSize) into contiguous blocks, one per
// group, and runs each block's work concurrently. Blocks are fixed up front:
// a group that finishes early does not take items from another group. This
// is the scheduling primitive behind the per-keypoint tracking loop (spec.md
// §4.7); callers are expected to index into
// an id-keyed slice or map by workNum so writes never collide across groups.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeGroupWorkFunc, groupWork GroupWorkFunc) error {
	if totalSize == 0 {
		before(0)
		return nil
	}
	extra := 0
	if totalSize > Factor {
		extra = totalSize % Factor
	}
	groupSize := int(math.Floor(float64(totalSize) / float64(Factor)))

	numGroups := Factor
	if totalSize < numGroups {
		numGroups = totalSize
		groupSize = 1
		extra = 0
	}
	before(numGroups)

	var wait sync.WaitGroup
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			groupNum := groupNumCopy

			thisGroupSize := groupSize
			thisExtra := 0
			if groupNum == (numGroups - 1) {
				thisExtra = extra
				thisGroupSize += thisExtra
			}
			from := groupSize * groupNum
			to := (groupSize * (groupNum + 1)) + thisExtra
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					memberWork(memberNum, workNum)
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		})
	}
	wait.Wait()
	return nil
}
