package repository

import (
	"testing"
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_ListAppliesVisibility(t *testing.T) {
	db := setupRepositoryTestDB(t)
	org, owner := createOrgWithOwner(t, NewOrganizationRepository(db), db, "visibility")
	repo := NewEventRepository(db)

	rostered := &models.User{Email: "rostered@example.com"}
	benched := &models.User{Email: "benched@example.com"}
	outsider := &models.User{Email: "outsider@example.com"}
	require.NoError(t, db.Create([]*models.User{rostered, benched, outsider}).Error)

	team := &models.Team{OrganizationID: org.ID, Name: "Valorant A"}
	rival := &models.Team{OrganizationID: org.ID, Name: "Valorant B"}
	require.NoError(t, db.Create([]*models.Team{team, rival}).Error)
	require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: &rostered.ID, Name: "Rostered", Status: models.TeamMemberActive}).Error)
	require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: &benched.ID, Name: "Benched", Status: models.TeamMemberInactive}).Error)

	start := time.Now().Add(24 * time.Hour)
	event := func(title string, visibility models.EventVisibility, teamID *uuid.UUID, createdBy uuid.UUID) {
		t.Helper()
		require.NoError(t, db.Create(&models.Event{
			OrganizationID: org.ID,
			TeamID:         teamID,
			Title:          title,
			EventType:      models.EventTypePractice,
			StartTime:      start,
			EndTime:        start.Add(time.Hour),
			Visibility:     visibility,
			CreatedBy:      createdBy,
		}).Error)
		start = start.Add(time.Hour)
	}
	event("Town hall", models.VisibilityOrg, nil, owner.ID)
	event("Team scrim", models.VisibilityTeam, &team.ID, owner.ID)
	event("Rival scrim", models.VisibilityTeam, &rival.ID, owner.ID)
	event("Staff review", models.VisibilityPrivate, nil, owner.ID)
	event("Own notes", models.VisibilityPrivate, nil, outsider.ID)

	titles := func(viewer *EventViewer) []string {
		t.Helper()
		events, total, err := repo.List(EventFilter{OrganizationID: org.ID, Viewer: viewer, Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(len(events)), total)
		out := make([]string, 0, len(events))
		for _, e := range events {
			out = append(out, e.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Town hall", "Team scrim"}, titles(&EventViewer{UserID: rostered.ID}))
	assert.Equal(t, []string{"Town hall"}, titles(&EventViewer{UserID: benched.ID}))
	assert.Equal(t, []string{"Town hall", "Own notes"}, titles(&EventViewer{UserID: outsider.ID}))
	assert.Equal(t, []string{"Town hall", "Team scrim", "Rival scrim"}, titles(&EventViewer{UserID: uuid.New(), AllTeams: true}))
	assert.Equal(t, []string{"Town hall", "Team scrim", "Rival scrim", "Staff review", "Own notes"},
		titles(&EventViewer{UserID: uuid.New(), AllTeams: true, Private: true}))
	assert.Len(t, titles(nil), 5)
}
