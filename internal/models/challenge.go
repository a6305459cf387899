package models

import (
	"sort"
	"time"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
)

// Challenge types.
const (
	ChallengeTypeFitness       = "fitness"
	ChallengeTypeAcademic      = "academic"
	ChallengeTypeSocial        = "social"
	ChallengeTypeCreative      = "creative"
	ChallengeTypeEnvironmental = "environmental"
	ChallengeTypeWellness      = "wellness"
)

// Challenge difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Challenge is a campus activity users join and complete with a password.
type Challenge struct {
	ID                 string                 `json:"id"`
	CreatorID          string                 `json:"creator_id"`
	CreatorName        string                 `json:"creator_name"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	ChallengeType      string                 `json:"challenge_type"`
	Difficulty         string                 `json:"difficulty"`
	Points             int                    `json:"points"`
	StartDate          time.Time              `json:"start_date"`
	EndDate            time.Time              `json:"end_date"`
	MaxParticipants    *int                   `json:"max_participants,omitempty"`
	CompletionPassword string                 `json:"completion_password,omitempty"`
	ParticipantCount   int                    `json:"participant_count"`
	Participants       []ChallengeParticipant `json:"participants"`
	IsActive           bool                   `json:"is_active"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// ChallengeParticipant tracks one user's progress on a challenge.
type ChallengeParticipant struct {
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name"`
	JoinedAt    time.Time  `json:"joined_at"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    int        `json:"progress"`
}

// LeaderboardEntry ranks a user by points earned from completed challenges.
type LeaderboardEntry struct {
	UserID              string `json:"user_id"`
	UserName            string `json:"user_name"`
	TotalPoints         int    `json:"total_points"`
	ChallengesCompleted int    `json:"challenges_completed"`
}

// Participant returns the entry for userID, or nil.
func (c *Challenge) Participant(userID string) *ChallengeParticipant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Full reports whether the participant limit is reached.
func (c *Challenge) Full() bool {
	return c.MaxParticipants != nil && c.ParticipantCount >= *c.MaxParticipants
}

// Join adds the participant. Joining again is a no-op and reports false.
func (c *Challenge) Join(p ChallengeParticipant) (bool, error) {
	if c.Participant(p.UserID) != nil {
		return false, nil
	}
	if !c.IsActive {
		return false, apperror.Conflict("challenge is no longer active")
	}
	if c.Full() {
		return false, apperror.Conflict("challenge is full")
	}
	p.Completed = false
	p.CompletedAt = nil
	p.Progress = ClampProgress(p.Progress)
	c.Participants = append(c.Participants, p)
	c.ParticipantCount++
	return true, nil
}

// Leave removes userID and reports whether an entry was removed.
func (c *Challenge) Leave(userID string) bool {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			c.Participants = append(c.Participants[:i], c.Participants[i+1:]...)
			if c.ParticipantCount > 0 {
				c.ParticipantCount--
			}
			return true
		}
	}
	return false
}

// Complete marks userID as finished when password matches exactly. A repeat
// completion keeps the first completed_at.
func (c *Challenge) Complete(userID, password string, now time.Time) error {
	p := c.Participant(userID)
	if p == nil {
		return apperror.Conflict("join the challenge before completing it")
	}
	if c.CompletionPassword != password {
		return apperror.Validation("incorrect completion password")
	}
	if p.Completed {
		return nil
	}
	completed := now
	p.Completed = true
	p.CompletedAt = &completed
	p.Progress = 100
	return nil
}

// SetProgress records progress for userID, clamped to [0,100].
func (c *Challenge) SetProgress(userID string, progress int) error {
	p := c.Participant(userID)
	if p == nil {
		return apperror.Conflict("join the challenge before reporting progress")
	}
	p.Progress = ClampProgress(progress)
	return nil
}

// Redacted hides the completion password from anyone but the creator or an admin.
func (c Challenge) Redacted(viewerID string, admin bool) Challenge {
	if admin || (viewerID != "" && viewerID == c.CreatorID) {
		return c
	}
	c.CompletionPassword = ""
	return c
}

// ClampProgress bounds a progress value to [0,100].
func ClampProgress(progress int) int {
	switch {
	case progress < 0:
		return 0
	case progress > 100:
		return 100
	default:
		return progress
	}
}

// Leaderboard ranks participants by points of completed challenges.
func Leaderboard(challenges []Challenge, limit int) []LeaderboardEntry {
	byUser := map[string]*LeaderboardEntry{}
	for _, ch := range challenges {
		for _, p := range ch.Participants {
			if !p.Completed {
				continue
			}
			entry, ok := byUser[p.UserID]
			if !ok {
				entry = &LeaderboardEntry{UserID: p.UserID, UserName: p.UserName}
				byUser[p.UserID] = entry
			}
			entry.TotalPoints += ch.Points
			entry.ChallengesCompleted++
		}
	}

	entries := make([]LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].ChallengesCompleted != entries[j].ChallengesCompleted {
			return entries[i].ChallengesCompleted > entries[j].ChallengesCompleted
		}
		return entries[i].UserName < entries[j].UserName
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
