package assignments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistoryAction(t *testing.T) {
	now := time.Now()

	require.Equal(t, ActionAssigned, HistoryAction(Assignment{IsActive: true}))
	require.Equal(t, ActionInactive, HistoryAction(Assignment{IsActive: false}))
	require.Equal(t, ActionDeactivated, HistoryAction(Assignment{IsActive: false, DeactivatedAt: &now}))

	// A set deactivated_at wins even over an inconsistent is_active.
	require.Equal(t, ActionDeactivated, HistoryAction(Assignment{IsActive: true, DeactivatedAt: &now}))
}

func TestEffectiveActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, Assignment{IsActive: true}.EffectiveActive(now))
	require.True(t, Assignment{IsActive: true, ExpiresAt: &future}.EffectiveActive(now))
	require.False(t, Assignment{IsActive: true, ExpiresAt: &past}.EffectiveActive(now))
	require.False(t, Assignment{IsActive: true, ExpiresAt: &now}.EffectiveActive(now))
	require.False(t, Assignment{IsActive: false, ExpiresAt: &future}.EffectiveActive(now))
}

func TestParseType(t *testing.T) {
	for raw, want := range map[string]AssignmentType{
		"manual":           TypeManual,
		" Automatic ":      TypeAutomatic,
		"SUBSCRIPTION":     TypeSubscription,
		"action_triggered": TypeActionTriggered,
	} {
		got, err := ParseType(raw)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseType("granted")
	require.Error(t, err)
}
