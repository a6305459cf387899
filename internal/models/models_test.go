package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueResolvedAtSetOnce(t *testing.T) {
	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	issue := &Issue{Status: IssueStatusOpen}

	issue.SetStatus(IssueStatusResolved, first)
	require.Equal(t, first, *issue.ResolvedAt)

	issue.SetStatus(IssueStatusInProgress, first.Add(time.Hour))
	require.NotNil(t, issue.ResolvedAt)

	issue.SetStatus(IssueStatusResolved, first.Add(2*time.Hour))
	require.Equal(t, first, *issue.ResolvedAt)
}

func TestAnnouncementVisibleAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	require.True(t, Announcement{IsActive: true}.VisibleAt(now))
	require.False(t, Announcement{IsActive: false}.VisibleAt(now))
	require.False(t, Announcement{IsActive: true, ScheduledAt: &later}.VisibleAt(now))
	require.False(t, Announcement{IsActive: true, ExpiresAt: &earlier}.VisibleAt(now))
}

func TestNotificationStatsAndMarkRead(t *testing.T) {
	now := time.Now()
	items := []Notification{
		{Type: NotificationTeam},
		{Type: NotificationTeam, IsRead: true},
		{Type: NotificationIssue},
	}
	require.True(t, items[0].MarkRead(now))
	require.False(t, items[0].MarkRead(now.Add(time.Minute)))
	require.Equal(t, now, *items[0].ReadAt)

	stats := StatsOf(items)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 1, stats.Unread)
	require.Equal(t, 2, stats.ByType[NotificationTeam])
}

func TestTeamMembership(t *testing.T) {
	team := Team{LeaderID: "lead", MaxMembers: 2, CurrentMembers: 2, Members: []TeamMember{{UserID: "m1"}}}
	require.True(t, team.IsMember("lead"))
	require.True(t, team.IsMember("m1"))
	require.False(t, team.IsMember("x"))
	require.True(t, team.Full())
}
