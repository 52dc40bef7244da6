package racer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/repository"
)

func newTestRacer(f *graphFetcher, workers int) *Racer {
	return New(f, lineParser{}, Options{Workers: workers, FetchTimeout: time.Second}, nil, nil)
}

func TestFindPath_ShortestPath(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"E"},
	})

	res, err := newTestRacer(f, 4).FindPath(context.Background(), page("A"), page("D"), 5)
	require.NoError(t, err)

	assert.True(t, res.Found())
	assert.Equal(t, entity.Path(pages("A", "B", "D")), res.Path)
	assert.Equal(t, 2, res.Path.Hops())
	assert.Equal(t, 2, res.DepthReached)
}

func TestFindPath_NotFoundWithinDepth(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"Z"},
	})

	res, err := newTestRacer(f, 4).FindPath(context.Background(), page("A"), page("Z"), 2)
	require.NoError(t, err)

	assert.False(t, res.Found())
	assert.Equal(t, entity.OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Path)
	assert.Equal(t, 2, res.DepthReached)
	assert.Zero(t, f.callsFor("C"), "level 3 must never start")
}

func TestFindPath_TrivialPathWithoutFetch(t *testing.T) {
	f := newGraphFetcher(map[string][]string{"A": {"B"}})

	res, err := newTestRacer(f, 4).FindPath(context.Background(), page("A"), page("A"), 5)
	require.NoError(t, err)

	assert.Equal(t, entity.Path{page("A")}, res.Path)
	assert.Zero(t, res.Path.Hops())
	assert.Zero(t, f.totalCalls())
}

func TestFindPath_FetchFailureIsNonFatal(t *testing.T) {
	// B fails on the level where C is expanded; the target sits one level
	// deeper so the failing level always runs to completion.
	f := newGraphFetcher(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"E"},
		"E": {"D"},
	})
	f.failWith("B", fmt.Errorf("%w: status 503", repository.ErrUnexpectedStatus))

	res, err := newTestRacer(f, 4).FindPath(context.Background(), page("A"), page("D"), 5)
	require.NoError(t, err)

	assert.Equal(t, entity.Path(pages("A", "C", "E", "D")), res.Path)
	require.Len(t, res.FailedPages, 1)
	assert.Equal(t, page("B"), res.FailedPages[0].URL)
	assert.Contains(t, res.FailedPages[0].Reason, "unexpected response status")
}

func TestFindPath_ParseFailureIsNonFatal(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"B", "C"},
		"C": {"E"},
		"E": {"D"},
	})
	f.graph[page("B")] = []string{"<broken"}

	res, err := newTestRacer(f, 2).FindPath(context.Background(), page("A"), page("D"), 3)
	require.NoError(t, err)
	assert.Equal(t, entity.Path(pages("A", "C", "E", "D")), res.Path)
	require.Len(t, res.Levels, 3)
	assert.Equal(t, 1, res.Levels[1].Failed)
}

func TestFindPath_TerminatesOnCycles(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"B", "C"},
		"B": {"A", "C"},
		"C": {"A", "B", "D"},
		"D": {"A"},
	})

	res, err := newTestRacer(f, 4).FindPath(context.Background(), page("A"), page("Z"), 50)
	require.NoError(t, err)

	assert.False(t, res.Found())
	assert.Equal(t, 4, res.PagesExpanded)
	assert.Equal(t, 1, f.maxCalls(), "no page may be expanded twice")
	assert.Less(t, res.DepthReached, 50, "search must stop once the frontier is empty")
}

func TestFindPath_EmptyFrontierStopsEarly(t *testing.T) {
	f := newGraphFetcher(map[string][]string{"A": {}})

	res, err := newTestRacer(f, 1).FindPath(context.Background(), page("A"), page("B"), 5)
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, 1, res.DepthReached)
}

func TestFindPath_NoExtraLevelAfterTarget(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"B", "C"},
		"B": {"T"},
		"C": {"X"},
		"X": {"T"},
	})

	res, err := newTestRacer(f, 4).FindPath(context.Background(), page("A"), page("T"), 5)
	require.NoError(t, err)
	assert.Equal(t, entity.Path(pages("A", "B", "T")), res.Path)
	assert.Zero(t, f.callsFor("X"))
}

func TestFindPath_LengthIsDeterministic(t *testing.T) {
	// Two routes of length 3 and one of length 4 to T.
	f := map[string][]string{
		"A":  {"B1", "B2", "B3", "B4"},
		"B1": {"C1", "C2"},
		"B2": {"C2", "C3"},
		"B3": {"C4"},
		"B4": {"A"},
		"C1": {"T"},
		"C3": {"T"},
		"C4": {"D1"},
		"D1": {"T"},
	}

	for i := 0; i < 25; i++ {
		res, err := newTestRacer(newGraphFetcher(f), 8).FindPath(context.Background(), page("A"), page("T"), 5)
		require.NoError(t, err)
		require.True(t, res.Found())
		assert.Equal(t, 3, res.Path.Hops())
		assert.Equal(t, page("A"), res.Path[0])
		assert.Equal(t, page("T"), res.Path[len(res.Path)-1])
	}
}

func TestFindPath_PathFollowsDiscoveredLinks(t *testing.T) {
	edges := map[string][]string{
		"A": {"B", "C", "D"},
		"B": {"E", "F"},
		"C": {"F", "G"},
		"D": {"G", "H"},
		"F": {"T"},
		"H": {"T"},
	}
	f := newGraphFetcher(edges)

	res, err := newTestRacer(f, 3).FindPath(context.Background(), page("A"), page("T"), 5)
	require.NoError(t, err)
	require.True(t, res.Found())

	for i := 0; i < len(res.Path)-1; i++ {
		assert.Contains(t, f.graph[res.Path[i]], res.Path[i+1])
	}
}

func TestFindPath_InvalidInput(t *testing.T) {
	r := newTestRacer(newGraphFetcher(nil), 1)

	_, err := r.FindPath(context.Background(), "/wiki/A", page("B"), 5)
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = r.FindPath(context.Background(), page("A"), "B", 5)
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = r.FindPath(context.Background(), page("A"), page("B"), 0)
	assert.ErrorIs(t, err, ErrInvalidMaxDepth)
}

func TestFindPath_MatchesTargetGivenInRawUnicode(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"Hundred_Years_War": {"Edward_III", "Battle_of_Cr%C3%A9cy"},
	})

	res, err := newTestRacer(f, 2).FindPath(context.Background(),
		page("Hundred_Years_War#Background"), page("Battle_of_Crécy"), 2)
	require.NoError(t, err)

	require.True(t, res.Found())
	assert.Equal(t, entity.Path(pages("Hundred_Years_War", "Battle_of_Cr%C3%A9cy")), res.Path)
	assert.Equal(t, page("Battle_of_Cr%C3%A9cy"), res.End)
	assert.Equal(t, 1, f.callsFor("Hundred_Years_War"))
}

func TestFindPath_CallerCancellation(t *testing.T) {
	f := newGraphFetcher(map[string][]string{"A": {"B"}, "B": {"C"}})
	ctx, cancel := context.WithCancel(context.Background())
	f.before = func(ctx context.Context, _ string) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := newTestRacer(f, 2).FindPath(ctx, page("A"), page("C"), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFindPath_SlowFetchTimesOut(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"SLOW", "B"},
		"B": {"T"},
	})
	f.before = func(ctx context.Context, url string) error {
		if url == page("SLOW") {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	r := New(f, lineParser{}, Options{Workers: 4, FetchTimeout: 20 * time.Millisecond}, nil, nil)

	res, err := r.FindPath(context.Background(), page("A"), page("T"), 3)
	require.NoError(t, err)
	assert.Equal(t, entity.Path(pages("A", "B", "T")), res.Path)
}

func TestFindPath_HooksReportLevels(t *testing.T) {
	f := newGraphFetcher(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"E"},
	})
	f.failWith("C", repository.ErrFetchFailed)

	var (
		started []int
		stats   []entity.LevelStats
		failed  []string
	)
	r := New(f, lineParser{}, Options{
		Workers: 2,
		Hooks: Hooks{
			OnLevelStart:    func(depth, _ int) { started = append(started, depth) },
			OnLevelComplete: func(s entity.LevelStats) { stats = append(stats, s) },
			OnFetchFailure:  func(p string, _ error) { failed = append(failed, p) },
		},
	}, nil, nil)

	res, err := r.FindPath(context.Background(), page("A"), page("Q"), 3)
	require.NoError(t, err)
	assert.False(t, res.Found())

	assert.Equal(t, []int{1, 2, 3}, started)
	require.Len(t, stats, 3)
	assert.Equal(t, entity.LevelStats{Depth: 1, Queued: 1, Discovered: 2}, withoutElapsed(stats[0]))
	assert.Equal(t, entity.LevelStats{Depth: 2, Queued: 2, Discovered: 1, Failed: 1}, withoutElapsed(stats[1]))
	assert.Equal(t, []string{page("C")}, failed)
}

func withoutElapsed(s entity.LevelStats) entity.LevelStats {
	s.Elapsed = 0
	return s
}
