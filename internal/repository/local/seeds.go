package local

import (
	"time"

	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/models"
)

// Identity of the built-in development user.
const (
	MockUserID    = "mock-user-123"
	MockUserEmail = "dev@plaksha.edu.in"
	MockUserName  = "Dev User"
)

// CampusCenter is the default location of the development user.
var CampusCenter = struct{ Latitude, Longitude float64 }{30.7333, 76.7794}

func intRef(v int) *int              { return &v }
func strRef(v string) *string        { return &v }
func timeRef(v time.Time) *time.Time { return &v }

func seedUsers(now time.Time) []models.User {
	user := func(id, email, name, role string, year int, branch, hostel string) models.User {
		return models.User{
			ID: id, Email: email, FullName: name, Role: role,
			Year: intRef(year), Branch: strRef(branch), Hostel: strRef(hostel),
			IsActive: true, IsVerified: true,
			CreatedAt: now.Add(-30 * 24 * time.Hour), UpdatedAt: now.Add(-30 * 24 * time.Hour),
		}
	}
	dev := user(MockUserID, MockUserEmail, MockUserName, "student", 2, "CSE", "A")
	dev.Bio = strRef("Development mode user")
	dev.PhoneNumber = strRef("+91-1234567890")
	admin := user("admin-1", "admin@plaksha.edu.in", "Campus Admin", "admin", 4, "Administration", "Staff")
	admin.Year = nil
	return []models.User{
		dev,
		admin,
		user("user-1", "alice@plaksha.edu.in", "Alice Johnson", "student", 2, "CSE", "A"),
		user("user-2", "bob@plaksha.edu.in", "Bob Smith", "student", 3, "ECE", "B"),
		user("user-3", "charlie@plaksha.edu.in", "Charlie Brown", "student", 1, "ME", "C"),
		user("user-4", "dana@plaksha.edu.in", "Dana Kapoor", "student", 2, "CSE", "A"),
		user("user-5", "evan@plaksha.edu.in", "Evan Mehta", "student", 4, "ECE", "B"),
	}
}

func seedAnnouncements(now time.Time) []models.Announcement {
	ann := func(id, title, content, category, priority, authorID, authorName string, age time.Duration) models.Announcement {
		at := now.Add(-age)
		return models.Announcement{
			ID: id, Title: title, Content: content, Category: category, Priority: priority,
			AuthorID: authorID, AuthorName: authorName, IsActive: true, CreatedAt: at, UpdatedAt: at,
		}
	}
	placement := ann("ann-4", "Placement Drive - Amazon",
		"Amazon is visiting campus for placement on Nov 18. Eligible students (CSE, ECE) should register on the placement portal by Nov 12.",
		models.AnnouncementCategoryPlacement, models.AnnouncementPriorityHigh, "admin-4", "Placement Cell", 5*24*time.Hour)
	placement.TargetYear = intRef(4)
	placement.TargetBranch = strRef("CSE")
	return []models.Announcement{
		ann("ann-1", "Mid-term Exams Schedule Released",
			"The mid-term examinations will be held from November 20-25, 2025. Please check the detailed schedule on the academic portal. All students must report 15 minutes before the exam time.",
			models.AnnouncementCategoryAcademic, models.AnnouncementPriorityHigh, "admin-1", "Academic Office", 2*time.Hour),
		ann("ann-2", "Tech Fest Registration Open",
			"TechFest 2025 registration is now open! Register your team for various competitions including hackathon, robotics, and design challenges. Last date: Nov 15.",
			models.AnnouncementCategoryEvent, models.AnnouncementPriorityNormal, "admin-2", "Tech Club", 24*time.Hour),
		ann("ann-3", "Hostel Timings Update",
			"Due to upcoming exams, hostel entry timings are extended till 11 PM for the next two weeks. Please cooperate with security staff.",
			models.AnnouncementCategoryHostel, models.AnnouncementPriorityNormal, "admin-3", "Hostel Administration", 3*24*time.Hour),
		placement,
	}
}

func seedGroups(now time.Time) []models.ChatGroup {
	member := func(id, name, role string, joined time.Time) models.ChatMember {
		return models.ChatMember{UserID: id, UserName: name, Role: role, JoinedAt: joined}
	}
	created1 := now.Add(-7 * 24 * time.Hour)
	created2 := now.Add(-3 * 24 * time.Hour)
	return []models.ChatGroup{
		{
			ID: "group-1", Name: "CSE Year 2", Description: strRef("Computer Science 2nd year students"),
			CreatedBy: MockUserID, IsActive: true,
			LastMessage: strRef("See you all at the library!"), LastMessageAt: timeRef(now.Add(-10 * time.Minute)),
			Members: []models.ChatMember{
				member(MockUserID, MockUserName, models.ChatRoleAdmin, created1),
				member("user-1", "Alice Johnson", models.ChatRoleMember, created1),
				member("user-2", "Bob Smith", models.ChatRoleMember, created1),
			},
			MemberCount: 3,
			CreatedAt:   created1, UpdatedAt: now.Add(-10 * time.Minute),
		},
		{
			ID: "group-2", Name: "Project Team Alpha", Description: strRef("Software Engineering project team"),
			CreatedBy: "user-1", IsActive: true,
			LastMessage: strRef("Updated the code, check GitHub"), LastMessageAt: timeRef(now.Add(-2 * time.Hour)),
			Members: []models.ChatMember{
				member("user-1", "Alice Johnson", models.ChatRoleAdmin, created2),
				member(MockUserID, MockUserName, models.ChatRoleMember, created2),
				member("user-3", "Charlie Brown", models.ChatRoleMember, created2),
				member("user-4", "Dana Kapoor", models.ChatRoleMember, created2),
			},
			MemberCount: 4,
			CreatedAt:   created2, UpdatedAt: now.Add(-2 * time.Hour),
		},
	}
}

// seedMessages returns the sample history for a seeded group, or nil.
func seedMessages(groupID string) func(now time.Time) []models.ChatMessage {
	return func(now time.Time) []models.ChatMessage {
		if groupID != "group-1" && groupID != "group-2" {
			return nil
		}
		msg := func(id, userID, name string, year int, branch, content string, age time.Duration) models.ChatMessage {
			return models.ChatMessage{
				ID: groupID + "-" + id, GroupID: groupID, UserID: userID, UserName: name,
				UserYear: intRef(year), UserBranch: strRef(branch), Content: content, CreatedAt: now.Add(-age),
			}
		}
		return []models.ChatMessage{
			msg("msg-1", "user-1", "Alice Johnson", 2, "CSE", "Hey everyone! How's the project going?", time.Hour),
			msg("msg-2", MockUserID, MockUserName, 2, "CSE", "Going well! Just finished the backend API.", 45*time.Minute),
			msg("msg-3", "user-2", "Bob Smith", 2, "ECE", "Awesome! I'll start on the frontend today.", 30*time.Minute),
		}
	}
}

func seedIssues(now time.Time) []models.Issue {
	day := 24 * time.Hour
	issue := func(id, title, description, category, priority, status, location, reporterID, reporterName string, age, touched time.Duration) models.Issue {
		return models.Issue{
			ID: id, Title: title, Description: description, Category: category, Priority: priority, Status: status,
			Location: strRef(location), ReporterID: reporterID, ReporterName: reporterName,
			CreatedAt: now.Add(-age), UpdatedAt: now.Add(-touched),
		}
	}
	slow := issue("issue-2", "Slow Internet in Hostel Block A",
		"Internet speed has been extremely slow for the past 3 days in Hostel Block A. Unable to attend online classes properly.",
		models.IssueCategoryInternet, models.IssuePriorityCritical, models.IssueStatusInProgress, "Hostel Block A", "user-2", "Bob Smith", 4*day, day)
	slow.AssignedTo = strRef("admin-1")
	slow.AssignedToName = strRef("Campus Admin")
	mess := issue("issue-3", "Messy Dining Hall",
		"Tables are not being cleaned properly after meals. Food debris left on tables.",
		models.IssueCategoryMess, models.IssuePriorityMedium, models.IssueStatusResolved, "Dining Hall", "user-3", "Charlie Brown", 7*day, day)
	mess.AssignedTo = strRef("admin-1")
	mess.AssignedToName = strRef("Campus Admin")
	mess.ResolvedAt = timeRef(now.Add(-day))
	return []models.Issue{
		issue("issue-1", "Broken AC in Library",
			"The air conditioning unit in the library study room 2 has stopped working. It's getting very hot and uncomfortable to study.",
			models.IssueCategoryInfrastructure, models.IssuePriorityHigh, models.IssueStatusOpen, "Library - Study Room 2", "user-1", "Alice Johnson", 2*day, 2*day),
		slow,
		mess,
		issue("issue-4", "Gym Equipment Maintenance",
			"Some treadmills are not working properly. One of them makes a strange noise.",
			models.IssueCategorySports, models.IssuePriorityLow, models.IssueStatusOpen, "Sports Complex - Gym", MockUserID, MockUserName, day, day),
		issue("issue-5", "Street Light Not Working",
			"The street light near Block C gate is not working since last week. It's dark and unsafe at night.",
			models.IssueCategorySecurity, models.IssuePriorityHigh, models.IssueStatusOpen, "Near Block C Gate", "user-2", "Bob Smith", 6*day, 6*day),
	}
}

func seedTeams(now time.Time) []models.Team {
	day := 24 * time.Hour
	team := func(id, name, description, category string, max int, tags []string, leaderID, leaderName, leaderEmail string, age time.Duration, others ...models.TeamMember) models.Team {
		at := now.Add(-age)
		members := append([]models.TeamMember{{UserID: leaderID, FullName: leaderName, Email: leaderEmail, Role: models.TeamRoleLeader, JoinedAt: at}}, others...)
		return models.Team{
			ID: id, Name: name, Description: description, Category: category, Status: models.TeamStatusActive,
			MaxMembers: max, CurrentMembers: len(members), IsPublic: true, Tags: tags,
			LeaderID: leaderID, LeaderName: leaderName, Members: members, CreatedAt: at, UpdatedAt: at,
		}
	}
	member := func(id, name, email string, joined time.Time) models.TeamMember {
		return models.TeamMember{UserID: id, FullName: name, Email: email, Role: models.TeamRoleMember, JoinedAt: joined}
	}
	return []models.Team{
		team("team-1", "AI Research Group",
			"Working on machine learning projects and research papers. Focus on NLP and computer vision applications.",
			models.TeamCategoryProject, 8, []string{"machine-learning", "research", "python", "ai"},
			"user-1", "Alice Johnson", "alice@plaksha.edu.in", 10*day,
			member("user-3", "Charlie Brown", "charlie@plaksha.edu.in", now.Add(-9*day))),
		team("team-2", "Web Dev Warriors",
			"Building full-stack web applications using React, Node.js, and modern frameworks.",
			models.TeamCategoryProject, 6, []string{"web-development", "react", "nodejs", "full-stack"},
			"user-2", "Bob Smith", "bob@plaksha.edu.in", 15*day,
			member(MockUserID, MockUserName, MockUserEmail, now.Add(-14*day))),
		team("team-3", "Hackathon Champions",
			"Team for upcoming inter-college hackathon. Looking for designers and developers.",
			models.TeamCategoryHackathon, 3, []string{"hackathon", "competition", "coding"},
			"user-3", "Charlie Brown", "charlie@plaksha.edu.in", 5*day,
			member("user-4", "Dana Kapoor", "dana@plaksha.edu.in", now.Add(-4*day))),
		team("team-4", "Data Structures Study Group",
			"Weekly study sessions for DSA preparation. Solving problems together and discussing solutions.",
			models.TeamCategoryStudy, 10, []string{"dsa", "algorithms", "leetcode", "study"},
			"user-1", "Alice Johnson", "alice@plaksha.edu.in", 20*day),
	}
}

func seedJoinRequests(now time.Time) []models.JoinRequest {
	at := now.Add(-6 * time.Hour)
	return []models.JoinRequest{
		{
			ID: "request-1", TeamID: "team-1", TeamName: "AI Research Group",
			UserID: "user-5", UserName: "Evan Mehta", UserEmail: "evan@plaksha.edu.in",
			Status: models.JoinRequestPending, Message: strRef("I have worked on NLP projects before."),
			CreatedAt: at, UpdatedAt: at,
		},
	}
}

func seedChallenges(now time.Time) []models.Challenge {
	day := 24 * time.Hour
	start := now.Add(-day)
	participant := func(id, name string, progress int) models.ChallengeParticipant {
		return models.ChallengeParticipant{UserID: id, UserName: name, JoinedAt: start, Progress: progress}
	}
	done := func(id, name string) models.ChallengeParticipant {
		p := participant(id, name, 100)
		p.Completed = true
		p.CompletedAt = timeRef(now.Add(-time.Hour))
		return p
	}
	challenge := func(id, creatorID, creatorName, title, description, kind, difficulty string, points int, end time.Duration, max *int, password string, participants ...models.ChallengeParticipant) models.Challenge {
		return models.Challenge{
			ID: id, CreatorID: creatorID, CreatorName: creatorName, Title: title, Description: description,
			ChallengeType: kind, Difficulty: difficulty, Points: points,
			StartDate: start, EndDate: now.Add(end), MaxParticipants: max, CompletionPassword: password,
			ParticipantCount: len(participants), Participants: participants, IsActive: true,
			CreatedAt: start, UpdatedAt: start,
		}
	}
	return []models.Challenge{
		challenge("challenge-1", "user-1", "Fitness Club", "Morning Run Streak",
			"Run at least 3km every morning for 7 days straight. Build consistency and start your day with energy!",
			models.ChallengeTypeFitness, models.DifficultyMedium, 150, 7*day, intRef(50), "RUN2024",
			participant("user-2", "Bob Smith", 57), participant("user-3", "Charlie Brown", 71)),
		challenge("challenge-2", "user-2", "Study Group", "Complete Data Structures Course",
			"Finish all modules of the Advanced Data Structures course and solve practice problems.",
			models.ChallengeTypeAcademic, models.DifficultyHard, 300, 30*day, nil, "DATA2024",
			participant("user-1", "Alice Johnson", 45), done("user-4", "Dana Kapoor")),
		challenge("challenge-3", "user-3", "Social Committee", "Connect with 10 New People",
			"Have meaningful conversations with at least 10 students you haven't talked to before. Expand your network!",
			models.ChallengeTypeSocial, models.DifficultyEasy, 100, 7*day, intRef(100), "CONNECT10",
			participant("user-5", "Evan Mehta", 80), done("user-1", "Alice Johnson")),
		challenge("challenge-4", "user-4", "Green Campus", "Zero Waste Week",
			"Avoid single-use plastic for a full week and log your swaps.",
			models.ChallengeTypeEnvironmental, models.DifficultyMedium, 200, 7*day, intRef(2), "GREEN7",
			participant("user-2", "Bob Smith", 23), participant("user-3", "Charlie Brown", 30)),
	}
}

func seedMessReviews(now time.Time) []models.MessReview {
	today := now.Format(models.DateLayout)
	yesterday := now.Add(-24 * time.Hour).Format(models.DateLayout)
	review := func(id, userID, name, meal string, rating int, text, date string, taste, quantity, hygiene, variety int) models.MessReview {
		return models.MessReview{
			ID: id, UserID: userID, UserName: name, MealType: meal, Rating: rating,
			TasteRating: intRef(taste), QuantityRating: intRef(quantity), HygieneRating: intRef(hygiene), VarietyRating: intRef(variety),
			ReviewText: strRef(text), MealDate: date, CreatedAt: now, UpdatedAt: now,
		}
	}
	return []models.MessReview{
		review("review-1", "user-1", "Alice Johnson", models.MealBreakfast, 4, "Great aloo paratha today! Fresh and hot.", today, 5, 4, 4, 3),
		review("review-2", "user-2", "Bob Smith", models.MealBreakfast, 3, "Poha was okay, could use more spices.", today, 3, 4, 4, 3),
		review("review-3", "user-3", "Charlie Brown", models.MealLunch, 5, "Rajma chawal was excellent.", today, 5, 5, 4, 4),
		review("review-4", "user-1", "Alice Johnson", models.MealLunch, 4, "Good dal, rotis were a bit cold.", today, 4, 4, 4, 3),
		review("review-5", "user-4", "Dana Kapoor", models.MealDinner, 2, "Paneer was overcooked.", yesterday, 2, 3, 3, 2),
		review("review-6", "user-5", "Evan Mehta", models.MealDinner, 3, "Average biryani.", yesterday, 3, 3, 4, 3),
	}
}

func seedNotifications(now time.Time) []models.Notification {
	return []models.Notification{
		{
			ID: "notification-1", UserID: MockUserID, Type: models.NotificationAnnouncement,
			Title: "New announcement", Message: "Mid-term Exams Schedule Released",
			Link: strRef("/announcements/ann-1"), ReferenceID: strRef("ann-1"), CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: "notification-2", UserID: MockUserID, Type: models.NotificationMessage,
			Title: "New message in CSE Year 2", Message: "Bob Smith: Awesome! I'll start on the frontend today.",
			Link: strRef("/chat/group-1"), ReferenceID: strRef("group-1"), CreatedAt: now.Add(-30 * time.Minute),
		},
		{
			ID: "notification-3", UserID: MockUserID, Type: models.NotificationTeam, IsRead: true,
			ReadAt: timeRef(now.Add(-13 * 24 * time.Hour)),
			Title:  "Join request approved", Message: "You joined Web Dev Warriors",
			Link: strRef("/teams/team-2"), ReferenceID: strRef("team-2"), CreatedAt: now.Add(-14 * 24 * time.Hour),
		},
	}
}

// seedLocations places three users close to the campus center, one outside
// the default search radius and one with a private location.
func seedLocations(now time.Time) []models.Location {
	loc := func(id, userID, name string, year int, branch string, lat, lng float64, address, visibility string) models.Location {
		return models.Location{
			ID: id, UserID: userID, UserName: name, UserYear: intRef(year), UserBranch: strRef(branch),
			Latitude: lat, Longitude: lng, Address: strRef(address), Visibility: visibility, IsActive: true,
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-5 * time.Minute),
		}
	}
	return []models.Location{
		loc("location-dev", MockUserID, MockUserName, 2, "CSE", CampusCenter.Latitude, CampusCenter.Longitude, "Plaksha University, Mohali, Punjab", models.VisibilityFriends),
		loc("location-1", "user-1", "Alice Johnson", 2, "CSE", 30.7335, 76.7796, "Near Library", models.VisibilityPublic),
		loc("location-2", "user-2", "Bob Smith", 3, "ECE", 30.7340, 76.7800, "Hostel B", models.VisibilityPublic),
		loc("location-3", "user-3", "Charlie Brown", 1, "ME", 30.7345, 76.7805, "Campus Center", models.VisibilityPublic),
		loc("location-4", "user-4", "Dana Kapoor", 2, "CSE", 30.7336, 76.7797, "Hostel A", models.VisibilityPrivate),
		loc("location-5", "user-5", "Evan Mehta", 4, "ECE", 30.78, 76.80, "Mohali City", models.VisibilityPublic),
	}
}

// seedBuildings lays the campus map out around CampusCenter, with the mess
// hall at its centre.
func seedBuildings(now time.Time) []models.Building {
	at := now.Add(-30 * 24 * time.Hour)
	building := func(id, name, code, kind string, dLat, dLng float64, description, floors, capacity string) models.Building {
		return models.Building{
			ID: id, Name: name, Code: strRef(code), BuildingType: kind,
			Latitude:  geo.Round(CampusCenter.Latitude+dLat, 4),
			Longitude: geo.Round(CampusCenter.Longitude+dLng, 4),
			Description: strRef(description), FloorCount: strRef(floors), Capacity: strRef(capacity),
			CreatedAt: at, UpdatedAt: at,
		}
	}
	return []models.Building{
		building("building-ac1", "Academic Block 1", "AC1", models.BuildingAcademic, -0.0002, -0.0003, "Main academic building with lecture halls and labs", "4", "500"),
		building("building-ac2", "Academic Block 2", "AC2", models.BuildingAcademic, 0.0003, 0.0002, "Secondary academic building", "3", "300"),
		building("building-bh1", "Boys Hostel 1", "BH1", models.BuildingHostel, -0.0007, 0.0005, "Boys residential building", "4", "200"),
		building("building-bh2", "Boys Hostel 2", "BH2", models.BuildingHostel, -0.0010, 0.0008, "Boys residential building", "4", "200"),
		building("building-gh1", "Girls Hostel 1", "GH1", models.BuildingHostel, 0.0007, -0.0008, "Girls residential building", "4", "200"),
		building("building-gh2", "Girls Hostel 2", "GH2", models.BuildingHostel, 0.0010, -0.0005, "Girls residential building", "4", "200"),
		building("building-mess", "Mess Hall", "MESS", models.BuildingDining, 0, 0, "Main dining facility", "2", "800"),
		building("building-caf", "Campus Cafeteria", "CAF", models.BuildingDining, -0.0005, -0.0002, "Coffee and snacks", "1", "100"),
		building("building-lib", "Central Library", "LIB", models.BuildingLibrary, 0.0002, -0.0001, "Main library with study spaces", "3", "300"),
		building("building-sport", "Sports Complex", "SPORT", models.BuildingSports, 0.0005, 0.0010, "Indoor sports facilities", "2", "200"),
		building("building-gym", "Gym", "GYM", models.BuildingSports, 0.0008, 0.0012, "Fitness center", "1", "50"),
		building("building-admin", "Administration Block", "ADMIN", models.BuildingAdministrative, -0.0001, -0.0004, "Administrative offices", "2", "100"),
		building("building-sac", "Student Activity Center", "SAC", models.BuildingRecreational, -0.0003, 0.0003, "Student clubs and activities", "2", "150"),
		building("building-aud", "Auditorium", "AUD", models.BuildingRecreational, 0.0001, 0.0001, "Main auditorium for events", "2", "500"),
	}
}
