package queries

import (
	"context"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

func (c *Client) CallerUserProfile(ctx context.Context) (*backend.UserProfile, error) {
	return read(ctx, c, false, KeyCurrentUserProfile, func(ctx context.Context, b backend.Backend) (*backend.UserProfile, error) {
		return b.GetCallerUserProfile(ctx)
	})
}

func (c *Client) UserProfile(ctx context.Context, user principal.Principal) (*backend.UserProfile, error) {
	return read(ctx, c, true, scoped(KeyUserProfile, user), func(ctx context.Context, b backend.Backend) (*backend.UserProfile, error) {
		return b.GetUserProfile(ctx, user)
	})
}

func (c *Client) LanguagePreference(ctx context.Context) (*backend.Language, error) {
	return read(ctx, c, true, scoped(KeyLanguagePreference, c.Caller()), func(ctx context.Context, b backend.Backend) (*backend.Language, error) {
		return b.GetUserLanguagePreference(ctx)
	})
}

// IsCallerAdmin is never served from cache; concurrent checks still share a call.
func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	return refresh(ctx, c, true, scoped(KeyIsAdmin, c.Caller()), func(ctx context.Context, b backend.Backend) (bool, error) {
		return b.IsCallerAdmin(ctx)
	})
}

func (c *Client) CallerUserRole(ctx context.Context) (backend.UserRole, error) {
	role, err := read(ctx, c, true, scoped(KeyUserRole, c.Caller()), func(ctx context.Context, b backend.Backend) (backend.UserRole, error) {
		return b.GetCallerUserRole(ctx)
	})
	if err == nil && role == "" {
		role = backend.RoleGuest
	}
	return role, err
}

func (c *Client) CommunityPosts(ctx context.Context) ([]backend.CommunityPost, error) {
	posts, err := read(ctx, c, false, KeyCommunityPosts, func(ctx context.Context, b backend.Backend) ([]backend.CommunityPost, error) {
		return b.GetAllCommunityPosts(ctx)
	})
	return orEmpty(posts), err
}

func (c *Client) CommunityGuidelines(ctx context.Context) (*backend.CommunityGuidelines, error) {
	return read(ctx, c, false, KeyCommunityGuidelines, func(ctx context.Context, b backend.Backend) (*backend.CommunityGuidelines, error) {
		g, err := b.GetCommunityGuidelines(ctx)
		if err != nil {
			return nil, err
		}
		return &g, nil
	})
}

func (c *Client) MoodEntries(ctx context.Context) ([]backend.MoodEntry, error) {
	me := c.Caller()
	entries, err := read(ctx, c, true, scoped(KeyMoodEntries, me), func(ctx context.Context, b backend.Backend) ([]backend.MoodEntry, error) {
		return b.GetUserMoodEntries(ctx, me)
	})
	return orEmpty(entries), err
}

func (c *Client) QuizResponse(ctx context.Context) (*backend.StressQuizResponse, error) {
	me := c.Caller()
	return read(ctx, c, true, scoped(KeyQuizResponse, me), func(ctx context.Context, b backend.Backend) (*backend.StressQuizResponse, error) {
		return b.GetUserQuizResponse(ctx, me)
	})
}

func (c *Client) TherapyRequests(ctx context.Context) ([]backend.TherapySessionRequest, error) {
	reqs, err := read(ctx, c, true, KeyTherapyRequests, func(ctx context.Context, b backend.Backend) ([]backend.TherapySessionRequest, error) {
		return b.GetAllTherapyRequests(ctx)
	})
	return orEmpty(reqs), err
}

func (c *Client) ReportedAreas(ctx context.Context) ([]backend.ReportedArea, error) {
	areas, err := read(ctx, c, true, KeyReportedAreas, func(ctx context.Context, b backend.Backend) ([]backend.ReportedArea, error) {
		return b.GetReportedAreas(ctx)
	})
	return orEmpty(areas), err
}

func (c *Client) ReportedArea(ctx context.Context, region string) (*backend.ReportedArea, error) {
	return read(ctx, c, true, withName(KeyReportedAreas, region), func(ctx context.Context, b backend.Backend) (*backend.ReportedArea, error) {
		return b.GetAreaByRegion(ctx, region)
	})
}

func (c *Client) Institutions(ctx context.Context) ([]backend.Institution, error) {
	inst, err := read(ctx, c, true, KeyInstitutions, func(ctx context.Context, b backend.Backend) ([]backend.Institution, error) {
		return b.GetAllInstitutions(ctx)
	})
	return orEmpty(inst), err
}

func (c *Client) Institution(ctx context.Context, id uint64) (*backend.Institution, error) {
	return read(ctx, c, true, withID(KeyInstitutions, id), func(ctx context.Context, b backend.Backend) (*backend.Institution, error) {
		return b.GetInstitutionByID(ctx, id)
	})
}

func (c *Client) AreaMonitoring(ctx context.Context) ([]backend.AreaMonitoring, error) {
	areas, err := read(ctx, c, true, KeyAreaMonitoring, func(ctx context.Context, b backend.Backend) ([]backend.AreaMonitoring, error) {
		return b.GetAllAreaMonitoring(ctx)
	})
	return orEmpty(areas), err
}

func (c *Client) AreaMonitoringByRegion(ctx context.Context, region string) (*backend.AreaMonitoring, error) {
	return read(ctx, c, true, withName(KeyAreaMonitoring, region), func(ctx context.Context, b backend.Backend) (*backend.AreaMonitoring, error) {
		return b.GetAreaMonitoringByRegion(ctx, region)
	})
}

func (c *Client) OutreachCamps(ctx context.Context) ([]backend.OutreachCamp, error) {
	camps, err := read(ctx, c, true, KeyOutreachCamps, func(ctx context.Context, b backend.Backend) ([]backend.OutreachCamp, error) {
		return b.GetAllOutreachCamps(ctx)
	})
	return orEmpty(camps), err
}

func (c *Client) OutreachCamp(ctx context.Context, id uint64) (*backend.OutreachCamp, error) {
	return read(ctx, c, true, withID(KeyOutreachCamps, id), func(ctx context.Context, b backend.Backend) (*backend.OutreachCamp, error) {
		return b.GetOutreachCampByID(ctx, id)
	})
}

func (c *Client) DashboardAnalytics(ctx context.Context) (*backend.DashboardAnalytics, error) {
	return read(ctx, c, true, KeyDashboardAnalytics, func(ctx context.Context, b backend.Backend) (*backend.DashboardAnalytics, error) {
		a, err := b.GetDashboardAnalytics(ctx)
		if err != nil {
			return nil, err
		}
		return &a, nil
	})
}

// ActiveUsers reads through the cache; RefreshActiveUsers is what pollers call.
func (c *Client) ActiveUsers(ctx context.Context) ([]backend.ActiveUser, error) {
	users, err := read(ctx, c, true, KeyActiveUsers, activeUsers)
	return orEmpty(users), err
}

func (c *Client) RefreshActiveUsers(ctx context.Context) ([]backend.ActiveUser, error) {
	users, err := refresh(ctx, c, true, KeyActiveUsers, activeUsers)
	return orEmpty(users), err
}

func activeUsers(ctx context.Context, b backend.Backend) ([]backend.ActiveUser, error) {
	return b.GetActiveUsers(ctx)
}

func (c *Client) Messages(ctx context.Context) ([]backend.Message, error) {
	me := c.Caller()
	msgs, err := read(ctx, c, true, scoped(KeyMessages, me), messagesOf(me))
	return orEmpty(msgs), err
}

func (c *Client) RefreshMessages(ctx context.Context) ([]backend.Message, error) {
	me := c.Caller()
	msgs, err := refresh(ctx, c, true, scoped(KeyMessages, me), messagesOf(me))
	return orEmpty(msgs), err
}

func messagesOf(me principal.Principal) func(context.Context, backend.Backend) ([]backend.Message, error) {
	return func(ctx context.Context, b backend.Backend) ([]backend.Message, error) {
		return b.GetMessagesByUser(ctx, me)
	}
}

func (c *Client) AllMessages(ctx context.Context) ([]backend.Message, error) {
	msgs, err := read(ctx, c, true, KeyAllMessages, allMessages)
	return orEmpty(msgs), err
}

func (c *Client) RefreshAllMessages(ctx context.Context) ([]backend.Message, error) {
	msgs, err := refresh(ctx, c, true, KeyAllMessages, allMessages)
	return orEmpty(msgs), err
}

func allMessages(ctx context.Context, b backend.Backend) ([]backend.Message, error) {
	return b.GetAllMessages(ctx)
}

func (c *Client) ConversationIDs(ctx context.Context) ([]uint64, error) {
	me := c.Caller()
	ids, err := read(ctx, c, true, scoped(KeyConversations, me), func(ctx context.Context, b backend.Backend) ([]uint64, error) {
		return b.GetUserConversations(ctx, me)
	})
	return orEmpty(ids), err
}

func (c *Client) AdminConversations(ctx context.Context) ([]backend.Conversation, error) {
	convs, err := read(ctx, c, true, KeyAdminConversations, func(ctx context.Context, b backend.Backend) ([]backend.Conversation, error) {
		return b.GetAdminConversations(ctx)
	})
	return orEmpty(convs), err
}

func (c *Client) AppURL(ctx context.Context) (string, error) {
	return read(ctx, c, false, KeyAppURL, func(ctx context.Context, b backend.Backend) (string, error) {
		return b.GetAppURL(ctx)
	})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
