package remote

import "github.com/noah-isme/plaksha-connect/internal/repository"

// NewRegistry builds every repository on one upstream client.
func NewRegistry(client *Client) repository.Registry {
	return repository.Registry{
		Mode:          repository.ModeRemote,
		Announcements: NewAnnouncementRepository(client),
		Chat:          NewChatRepository(client),
		Issues:        NewIssueRepository(client),
		Teams:         NewTeamRepository(client),
		Challenges:    NewChallengeRepository(client),
		MessReviews:   NewMessReviewRepository(client),
		Locations:     NewLocationRepository(client),
		Buildings:     NewBuildingRepository(client),
		Notifications: NewNotificationRepository(client),
		Users:         NewUserRepository(client),
		Auth:          NewAuthRepository(client),
	}
}
