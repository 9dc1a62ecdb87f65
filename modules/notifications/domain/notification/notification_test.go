package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusDeleted, true},
		{StatusDraft, StatusApproved, false},
		{StatusSubmitted, StatusApproved, true},
		{StatusSubmitted, StatusReturned, true},
		{StatusSubmitted, StatusDeleted, true},
		{StatusSubmitted, StatusSubmitted, false},
		{StatusReturned, StatusSubmitted, true},
		{StatusReturned, StatusApproved, false},
		{StatusApproved, StatusDeleted, true},
		{StatusApproved, StatusExpired, true},
		{StatusApproved, StatusReturned, false},
		{StatusDeleted, StatusDraft, false},
		{StatusExpired, StatusApproved, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEditableAndTerminal(t *testing.T) {
	require.True(t, StatusDraft.Editable())
	require.True(t, StatusReturned.Editable())
	require.False(t, StatusSubmitted.Editable())
	require.False(t, StatusApproved.Editable())

	require.True(t, StatusDeleted.Terminal())
	require.True(t, StatusExpired.Terminal())
	require.False(t, StatusApproved.Terminal())
}

func TestActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	n := &Notification{
		Status:    StatusApproved,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
	}
	require.True(t, n.ActiveAt(now))
	require.True(t, n.ActiveAt(n.StartDate))
	require.True(t, n.ActiveAt(n.EndDate))
	require.False(t, n.ActiveAt(n.StartDate.Add(-time.Second)))
	require.False(t, n.ActiveAt(n.EndDate.Add(time.Second)))

	n.Status = StatusSubmitted
	require.False(t, n.ActiveAt(now))
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("  Approved ")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got)

	_, err = ParseStatus("archived")
	require.Error(t, err)
}

func TestParseType(t *testing.T) {
	got, err := ParseType("WEB")
	require.NoError(t, err)
	require.Equal(t, TypeWeb, got)

	_, err = ParseType("email")
	require.Error(t, err)
}
