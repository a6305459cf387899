package repository

import (
	"context"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
)

// Mode names a data source implementation.
type Mode string

// Supported data sources.
const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// AnnouncementFilter narrows announcement listings. Empty fields match everything.
type AnnouncementFilter struct {
	Category string
	Priority string
	Search   string
}

// AnnouncementRepository persists announcements.
type AnnouncementRepository interface {
	List(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, error)
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, item *models.Announcement) (*models.Announcement, error)
	Update(ctx context.Context, id string, patch dto.AnnouncementUpdateRequest) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// MessageQuery pages backwards through a group's history.
type MessageQuery struct {
	// Before is a message id; only strictly older messages are returned.
	Before string
	Limit  int
}

// ChatRepository persists groups and their messages.
type ChatRepository interface {
	ListGroups(ctx context.Context) ([]models.ChatGroup, error)
	FindGroup(ctx context.Context, id string) (*models.ChatGroup, error)
	CreateGroup(ctx context.Context, group *models.ChatGroup) (*models.ChatGroup, error)
	UpdateGroup(ctx context.Context, id string, patch dto.ChatGroupUpdateRequest) (*models.ChatGroup, error)
	AddMembers(ctx context.Context, groupID string, members []models.ChatMember) error
	LeaveGroup(ctx context.Context, groupID, userID string) error
	ListMessages(ctx context.Context, groupID string, query MessageQuery) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error)
}

// IssueFilter narrows issue listings.
type IssueFilter struct {
	Category   string
	Status     string
	Priority   string
	ReporterID string
	Search     string
}

// IssueRepository persists reported issues.
type IssueRepository interface {
	List(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	Create(ctx context.Context, issue *models.Issue) (*models.Issue, error)
	Update(ctx context.Context, id string, patch dto.IssueUpdateRequest) (*models.Issue, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Issue, error)
	Assign(ctx context.Context, id, assigneeID, assigneeName string) (*models.Issue, error)
	Delete(ctx context.Context, id string) error
}

// TeamFilter narrows team listings.
type TeamFilter struct {
	Category string
	Status   string
	Search   string
	// MemberID keeps teams the user leads or belongs to.
	MemberID string
}

// TeamRepository persists teams and join requests.
type TeamRepository interface {
	List(ctx context.Context, filter TeamFilter) ([]models.Team, error)
	FindByID(ctx context.Context, id string) (*models.Team, error)
	Create(ctx context.Context, team *models.Team) (*models.Team, error)
	Update(ctx context.Context, id string, patch dto.TeamUpdateRequest) (*models.Team, error)
	Delete(ctx context.Context, id string) error
	RequestJoin(ctx context.Context, request *models.JoinRequest) (*models.JoinRequest, error)
	ListRequests(ctx context.Context, teamID string) ([]models.JoinRequest, error)
	FindRequest(ctx context.Context, requestID string) (*models.JoinRequest, error)
	ApproveRequest(ctx context.Context, requestID string) error
	RejectRequest(ctx context.Context, requestID string) error
	Leave(ctx context.Context, teamID, userID string) error
}

// ChallengeFilter narrows challenge listings.
type ChallengeFilter struct {
	Type       string
	Difficulty string
	ActiveOnly bool
	// UserID keeps challenges the user created or joined.
	UserID string
}

// ChallengeRepository persists challenges and participation.
type ChallengeRepository interface {
	List(ctx context.Context, filter ChallengeFilter) ([]models.Challenge, error)
	FindByID(ctx context.Context, id string) (*models.Challenge, error)
	Create(ctx context.Context, challenge *models.Challenge) (*models.Challenge, error)
	Update(ctx context.Context, id string, patch dto.ChallengeUpdateRequest) (*models.Challenge, error)
	Delete(ctx context.Context, id string) error
	Join(ctx context.Context, id string, participant models.ChallengeParticipant) (*models.ChallengeParticipant, error)
	Leave(ctx context.Context, id, userID string) error
	Complete(ctx context.Context, id, userID, password string) (*models.ChallengeParticipant, error)
	SetProgress(ctx context.Context, id, userID string, progress int) (*models.ChallengeParticipant, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// MessReviewFilter narrows review listings.
type MessReviewFilter struct {
	MealType string
	MealDate string
	UserID   string
}

// AveragesQuery selects the window for daily averages. Dates are YYYY-MM-DD.
type AveragesQuery struct {
	StartDate string
	EndDate   string
	MealType  string
}

// MessReviewRepository persists meal reviews.
type MessReviewRepository interface {
	List(ctx context.Context, filter MessReviewFilter) ([]models.MessReview, error)
	FindByID(ctx context.Context, id string) (*models.MessReview, error)
	Create(ctx context.Context, review *models.MessReview) (*models.MessReview, error)
	Update(ctx context.Context, id string, patch dto.MessReviewUpdateRequest) (*models.MessReview, error)
	Delete(ctx context.Context, id string) error
	DailyAverages(ctx context.Context, query AveragesQuery) ([]models.DailyAverage, error)
}

// LocationRepository persists shared locations.
type LocationRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.Location, error)
	Upsert(ctx context.Context, location *models.Location) (*models.Location, error)
	Update(ctx context.Context, id string, patch dto.LocationUpdateRequest) (*models.Location, error)
	Deactivate(ctx context.Context, userID string) error
	Toggle(ctx context.Context, userID string, active bool) (*models.Location, error)
	Nearby(ctx context.Context, userID string, maxDistanceKm float64) ([]models.NearbyUser, error)
}

// BuildingFilter narrows building listings.
type BuildingFilter struct {
	Type   string
	Search string
}

// BuildingRepository persists campus map buildings.
type BuildingRepository interface {
	List(ctx context.Context, filter BuildingFilter) ([]models.Building, error)
	FindByID(ctx context.Context, id string) (*models.Building, error)
	Create(ctx context.Context, building *models.Building) (*models.Building, error)
	Update(ctx context.Context, id string, patch dto.BuildingUpdateRequest) (*models.Building, error)
	Delete(ctx context.Context, id string) error
}

// NotificationFilter narrows a user's notifications.
type NotificationFilter struct {
	UserID     string
	Type       string
	UnreadOnly bool
	Limit      int
}

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error)
	Stats(ctx context.Context, userID string) (models.NotificationStats, error)
	Create(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	// CreateMany stores a fan-out batch as one write.
	CreateMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) error
}

// UserRepository persists user profiles.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, patch dto.UserUpdateRequest) (*models.User, error)
}

// AuthRepository runs the passcode sign-in flow.
type AuthRepository interface {
	RequestOTP(ctx context.Context, email string) (*models.OTPTicket, error)
	VerifyOTP(ctx context.Context, email, code string) (*models.AuthResult, error)
	Register(ctx context.Context, request dto.RegisterRequest) (*models.AuthResult, error)
}

// Registry bundles one complete set of repositories backed by a single data source.
type Registry struct {
	Mode          Mode
	Announcements AnnouncementRepository
	Chat          ChatRepository
	Issues        IssueRepository
	Teams         TeamRepository
	Challenges    ChallengeRepository
	MessReviews   MessReviewRepository
	Locations     LocationRepository
	Buildings     BuildingRepository
	Notifications NotificationRepository
	Users         UserRepository
	Auth          AuthRepository
}
