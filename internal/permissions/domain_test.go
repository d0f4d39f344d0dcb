package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ballotworks/roleboard/internal/shared"
)

func TestGroupByCategory(t *testing.T) {
	list := []Permission{
		{ID: 1, Name: "create_election", Category: CategoryElection},
		{ID: 2, Name: "view_votes", Category: CategoryVoting},
		{ID: 3, Name: "close_election", Category: CategoryElection},
		{ID: 4, Name: "legacy_flag"},
	}

	grouped := GroupByCategory(list)

	require.Len(t, grouped[string(CategoryElection)], 2)
	require.Equal(t, "create_election", grouped[string(CategoryElection)][0].Name)
	require.Equal(t, "close_election", grouped[string(CategoryElection)][1].Name)
	require.Len(t, grouped[string(CategoryVoting)], 1)

	// Uncategorised entries land under the reserved key instead of vanishing.
	require.Len(t, grouped[OtherCategoryKey], 1)
	require.Equal(t, "legacy_flag", grouped[OtherCategoryKey][0].Name)

	total := 0
	for _, sub := range grouped {
		total += len(sub)
	}
	require.Equal(t, len(list), total, "every permission lands in exactly one bucket")
}

func TestGroupByCategoryEmpty(t *testing.T) {
	require.Empty(t, GroupByCategory(nil))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("  Election ")
	require.NoError(t, err)
	require.Equal(t, CategoryElection, c)

	_, err = ParseCategory("finance")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestParseResourceAndAction(t *testing.T) {
	r, err := ParseResource("ADVERTISEMENT")
	require.NoError(t, err)
	require.Equal(t, ResourceAdvertisement, r)

	_, err = ParseResource("spaceship")
	require.ErrorIs(t, err, shared.ErrValidation)

	a, err := ParseAction("execute")
	require.NoError(t, err)
	require.Equal(t, ActionExecute, a)

	_, err = ParseAction("approve")
	require.ErrorIs(t, err, shared.ErrValidation)
}
