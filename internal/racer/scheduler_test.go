package racer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wikiracer/internal/entity"
)

func TestScheduler_PanicIsFatal(t *testing.T) {
	exp := funcExpander(func(_ context.Context, p string) ([]string, error) {
		if p == page("B") {
			panic("boom")
		}
		return pages("B"), nil
	})

	_, err := NewScheduler(exp, 2, Hooks{}, nil, nil).Run(context.Background(), page("A"), page("Z"), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")
}

func TestScheduler_RespectsWorkerBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	children := make([]string, 40)
	for i := range children {
		children[i] = fmt.Sprintf("N%d", i)
	}

	exp := funcExpander(func(_ context.Context, p string) ([]string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		if p == page("A") {
			return pages(children...), nil
		}
		return nil, nil
	})

	res, err := NewScheduler(exp, 3, Hooks{}, nil, nil).Run(context.Background(), page("A"), page("Z"), 2)
	require.NoError(t, err)
	assert.Equal(t, 41, res.PagesExpanded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestScheduler_EachPageEnqueuedOnce(t *testing.T) {
	// Every page of level 1 links to the same 50 pages.
	shared := make([]string, 50)
	for i := range shared {
		shared[i] = page(fmt.Sprintf("S%d", i))
	}
	level1 := make([]string, 30)
	for i := range level1 {
		level1[i] = page(fmt.Sprintf("L%d", i))
	}

	var mu sync.Mutex
	expanded := make(map[string]int)
	exp := funcExpander(func(_ context.Context, p string) ([]string, error) {
		mu.Lock()
		expanded[p]++
		mu.Unlock()
		if p == page("A") {
			return level1, nil
		}
		return shared, nil
	})

	res, err := NewScheduler(exp, 16, Hooks{}, nil, nil).Run(context.Background(), page("A"), page("Z"), 3)
	require.NoError(t, err)
	assert.False(t, res.Found())

	for p, n := range expanded {
		assert.Equal(t, 1, n, p)
	}
	assert.Len(t, expanded, 1+len(level1)+len(shared))
	require.Len(t, res.Levels, 3)
	assert.Equal(t, len(shared), res.Levels[1].Discovered)
}

func TestScheduler_TargetCancelsSiblings(t *testing.T) {
	exp := funcExpander(func(ctx context.Context, p string) ([]string, error) {
		switch p {
		case page("A"):
			return pages("FAST", "SLOW1", "SLOW2"), nil
		case page("FAST"):
			return pages("T"), nil
		default:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(10 * time.Second):
				return pages("T"), nil
			}
		}
	})

	start := time.Now()
	res, err := NewScheduler(exp, 4, Hooks{}, nil, nil).Run(context.Background(), page("A"), page("T"), 3)
	require.NoError(t, err)
	assert.Equal(t, entity.Path(pages("A", "FAST", "T")), res.Path)
	assert.Empty(t, res.FailedPages, "cancelled siblings are not failures")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestScheduler_StartLinkIsNotRequeued(t *testing.T) {
	exp := funcExpander(func(_ context.Context, p string) ([]string, error) {
		return pages("A"), nil
	})

	res, err := NewScheduler(exp, 1, Hooks{}, nil, nil).Run(context.Background(), page("A"), page("Z"), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DepthReached)
	assert.Equal(t, 1, res.PagesExpanded)
}
