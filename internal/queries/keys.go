package queries

import (
	"strconv"

	"github.com/soaringjerry/supportportal/internal/principal"
	"github.com/soaringjerry/supportportal/internal/query"
)

// Root keys. Keys scoped to a principal append its text. Conversation keys
// nest under the message roots so message writes reach them too.
var (
	KeyCurrentUserProfile  = query.Key{"currentUserProfile"}
	KeyLanguagePreference  = query.Key{"languagePreference"}
	KeyIsAdmin             = query.Key{"isAdmin"}
	KeyUserRole            = query.Key{"userRole"}
	KeyUserProfile         = query.Key{"userProfile"}
	KeyCommunityPosts      = query.Key{"communityPosts"}
	KeyCommunityGuidelines = query.Key{"communityGuidelines"}
	KeyMoodEntries         = query.Key{"moodEntries"}
	KeyQuizResponse        = query.Key{"quizResponse"}
	KeyTherapyRequests     = query.Key{"therapyRequests"}
	KeyReportedAreas       = query.Key{"reportedAreas"}
	KeyInstitutions        = query.Key{"institutions"}
	KeyAreaMonitoring      = query.Key{"areaMonitoring"}
	KeyOutreachCamps       = query.Key{"outreachCamps"}
	KeyDashboardAnalytics  = query.Key{"dashboardAnalytics"}
	KeyActiveUsers         = query.Key{"activeUsers"}
	KeyMessages            = query.Key{"messages"}
	KeyAllMessages         = query.Key{"allMessages"}
	KeyConversations       = query.Key{"messages", "ids"}
	KeyAdminConversations  = query.Key{"allMessages", "conversations"}
	KeyAppURL              = query.Key{"appUrl"}
)

func scoped(root query.Key, p principal.Principal) query.Key {
	return append(append(query.Key(nil), root...), p.String())
}

func withID(root query.Key, id uint64) query.Key {
	return append(append(query.Key(nil), root...), strconv.FormatUint(id, 10))
}

func withName(root query.Key, name string) query.Key {
	return append(append(query.Key(nil), root...), name)
}

// Invalidations is the fixed table of keys each write makes stale.
var Invalidations = map[string][]query.Key{
	"saveCallerUserProfile":       {KeyCurrentUserProfile},
	"setUserLanguagePreference":   {KeyCurrentUserProfile, KeyLanguagePreference},
	"checkAndAssignAdmin":         {KeyIsAdmin},
	"assignUserRole":              {KeyIsAdmin, KeyUserRole},
	"assignCallerUserRole":        {KeyIsAdmin, KeyUserRole},
	"createCommunityPost":         {KeyCommunityPosts},
	"updateCommunityPost":         {KeyCommunityPosts},
	"deletePost":                  {KeyCommunityPosts},
	"moderatePost":                {KeyCommunityPosts},
	"addMoodEntry":                {KeyMoodEntries},
	"submitStressQuiz":            {KeyQuizResponse},
	"createTherapySessionRequest": {KeyTherapyRequests},
	"reportArea":                  {KeyReportedAreas},
	"updateAreaCampaigns":         {KeyReportedAreas},
	"addInstitution":              {KeyInstitutions, KeyDashboardAnalytics},
	"updateInstitution":           {KeyInstitutions, KeyDashboardAnalytics},
	"addAreaMonitoring":           {KeyAreaMonitoring, KeyDashboardAnalytics},
	"updateAreaMonitoring":        {KeyAreaMonitoring, KeyDashboardAnalytics},
	"addOutreachCamp":             {KeyOutreachCamps, KeyDashboardAnalytics},
	"updateOutreachCamp":          {KeyOutreachCamps, KeyDashboardAnalytics},
	"sendMessage":                 {KeyMessages, KeyAllMessages},
	"markMessageAsRead":           {KeyMessages, KeyAllMessages},
	"setAppUrl":                   {KeyAppURL},
}
