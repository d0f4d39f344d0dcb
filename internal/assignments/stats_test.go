package assignments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	list := []Assignment{
		{ID: "a", UserID: 1, IsActive: true},
		{ID: "b", UserID: 1, IsActive: false},
		{ID: "c", UserID: 2, IsActive: true},
		{ID: "d", UserID: 3, IsActive: false},
	}

	stats := ComputeStats(list)
	require.Equal(t, 3, stats.TotalUsers)
	require.Equal(t, 4, stats.TotalAssignments)
	require.Equal(t, 2, stats.ActiveCount)
	require.Equal(t, 2, stats.InactiveCount)
	require.Equal(t, stats.TotalAssignments, stats.ActiveCount+stats.InactiveCount)
}

func TestComputeStatsEmpty(t *testing.T) {
	require.Equal(t, Stats{}, ComputeStats(nil))
}

func TestGroupByUser(t *testing.T) {
	list := []Assignment{
		{ID: "a", UserID: 2, IsActive: true},
		{ID: "b", UserID: 1, IsActive: false},
		{ID: "c", UserID: 2, IsActive: false},
		{ID: "d", UserID: 1, IsActive: true},
	}

	groups := GroupByUser(list)
	require.Len(t, groups, 2)

	// Users appear in first-seen order of the input.
	require.Equal(t, int64(2), groups[0].UserID)
	require.Equal(t, int64(1), groups[1].UserID)

	require.Len(t, groups[0].Active, 1)
	require.Equal(t, "a", groups[0].Active[0].ID)
	require.Len(t, groups[0].Inactive, 1)
	require.Equal(t, "c", groups[0].Inactive[0].ID)

	// The union of all sublists is exactly the input.
	total := 0
	for _, g := range groups {
		total += len(g.Active) + len(g.Inactive)
	}
	require.Equal(t, len(list), total)
}

func TestGroupByUserEmpty(t *testing.T) {
	require.Empty(t, GroupByUser(nil))
}
