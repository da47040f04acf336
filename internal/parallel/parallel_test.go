package parallel

import (
	"context"
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallelCoversEveryIndex(t *testing.T) {
	const n = 137
	var mu sync.Mutex
	seen := make([]bool, n)

	err := GroupWorkParallel(context.Background(), n,
		func(groupSize int) {},
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				mu.Lock()
				seen[workNum] = true
				mu.Unlock()
			}, nil
		},
	)
	test.That(t, err, test.ShouldBeNil)
	for _, ok := range seen {
		test.That(t, ok, test.ShouldBeTrue)
	}
}

func TestGroupWorkParallelEmpty(t *testing.T) {
	called := false
	err := GroupWorkParallel(context.Background(), 0,
		func(groupSize int) { called = true },
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			t.Fatal("should not be called for empty range")
			return nil, nil
		},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, called, test.ShouldBeTrue)
}
