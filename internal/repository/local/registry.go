package local

import (
	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

// NewRegistry builds every repository on one store.
func NewRegistry(store *Store, relations geo.RelationshipChecker, auth AuthOptions) repository.Registry {
	return repository.Registry{
		Mode:          repository.ModeLocal,
		Announcements: NewAnnouncementRepository(store),
		Chat:          NewChatRepository(store),
		Issues:        NewIssueRepository(store),
		Teams:         NewTeamRepository(store),
		Challenges:    NewChallengeRepository(store),
		MessReviews:   NewMessReviewRepository(store),
		Locations:     NewLocationRepository(store, relations),
		Buildings:     NewBuildingRepository(store),
		Notifications: NewNotificationRepository(store),
		Users:         NewUserRepository(store),
		Auth:          NewAuthRepository(store, auth),
	}
}
