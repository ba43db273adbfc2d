package queries

import (
	"context"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

func (c *Client) SaveCallerUserProfile(ctx context.Context, p backend.UserProfile) error {
	return c.write(ctx, "saveCallerUserProfile", func(ctx context.Context, b backend.Backend) error {
		return b.SaveCallerUserProfile(ctx, p)
	})
}

func (c *Client) SetLanguagePreference(ctx context.Context, lang backend.Language) error {
	return c.write(ctx, "setUserLanguagePreference", func(ctx context.Context, b backend.Backend) error {
		return b.SetUserLanguagePreference(ctx, lang)
	})
}

// CheckAndAssignAdmin invalidates isAdmin only when the caller was promoted.
func (c *Client) CheckAndAssignAdmin(ctx context.Context) (bool, error) {
	if c.actor == nil {
		return false, backend.ErrActorUnavailable
	}
	noteWrite(ctx)
	promoted, err := c.actor.CheckAndAssignAdmin(ctx)
	if err != nil {
		return false, err
	}
	if promoted {
		c.cache.Invalidate(Invalidations["checkAndAssignAdmin"]...)
	}
	return promoted, nil
}

func (c *Client) AssignUserRole(ctx context.Context, user principal.Principal, role string) error {
	return c.write(ctx, "assignUserRole", func(ctx context.Context, b backend.Backend) error {
		return b.AssignUserRole(ctx, user, role)
	})
}

func (c *Client) AssignCallerUserRole(ctx context.Context, user principal.Principal, role backend.UserRole) error {
	return c.write(ctx, "assignCallerUserRole", func(ctx context.Context, b backend.Backend) error {
		return b.AssignCallerUserRole(ctx, user, role)
	})
}

// CheckContent is never cached: every save asks again.
func (c *Client) CheckContent(ctx context.Context, text string) (backend.ContentFiltered, error) {
	if c.actor == nil {
		return backend.ContentFiltered{}, backend.ErrActorUnavailable
	}
	return c.actor.CheckContent(ctx, text)
}

func (c *Client) CreateCommunityPost(ctx context.Context, content string, anonymous bool) error {
	return c.write(ctx, "createCommunityPost", func(ctx context.Context, b backend.Backend) error {
		return b.CreateCommunityPost(ctx, content, anonymous)
	})
}

func (c *Client) UpdateCommunityPost(ctx context.Context, id uint64, content string) error {
	return c.write(ctx, "updateCommunityPost", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateCommunityPost(ctx, id, content)
	})
}

func (c *Client) DeletePost(ctx context.Context, id uint64) error {
	return c.write(ctx, "deletePost", func(ctx context.Context, b backend.Backend) error {
		return b.DeletePost(ctx, id)
	})
}

func (c *Client) ModeratePost(ctx context.Context, id uint64, flag bool) error {
	return c.write(ctx, "moderatePost", func(ctx context.Context, b backend.Backend) error {
		return b.ModeratePost(ctx, id, flag)
	})
}

func (c *Client) AddMoodEntry(ctx context.Context, mood string) error {
	return c.write(ctx, "addMoodEntry", func(ctx context.Context, b backend.Backend) error {
		return b.AddMoodEntry(ctx, mood)
	})
}

func (c *Client) SubmitStressQuiz(ctx context.Context, score uint64, responses []uint64) error {
	return c.write(ctx, "submitStressQuiz", func(ctx context.Context, b backend.Backend) error {
		return b.SubmitStressQuiz(ctx, score, responses)
	})
}

func (c *Client) CreateTherapySessionRequest(ctx context.Context, typeRequest, details string) error {
	return c.write(ctx, "createTherapySessionRequest", func(ctx context.Context, b backend.Backend) error {
		return b.CreateTherapySessionRequest(ctx, typeRequest, details)
	})
}

func (c *Client) ReportArea(ctx context.Context, in backend.ReportedAreaInput) error {
	return c.write(ctx, "reportArea", func(ctx context.Context, b backend.Backend) error {
		return b.ReportArea(ctx, in)
	})
}

func (c *Client) UpdateAreaCampaigns(ctx context.Context, region string, campaigns []string) error {
	return c.write(ctx, "updateAreaCampaigns", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateAreaCampaigns(ctx, region, campaigns)
	})
}

func (c *Client) AddInstitution(ctx context.Context, in backend.InstitutionInput) error {
	return c.write(ctx, "addInstitution", func(ctx context.Context, b backend.Backend) error {
		return b.AddInstitution(ctx, in)
	})
}

func (c *Client) UpdateInstitution(ctx context.Context, id uint64, in backend.InstitutionInput) error {
	return c.write(ctx, "updateInstitution", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateInstitution(ctx, id, in)
	})
}

func (c *Client) AddAreaMonitoring(ctx context.Context, in backend.AreaMonitoringInput) error {
	return c.write(ctx, "addAreaMonitoring", func(ctx context.Context, b backend.Backend) error {
		return b.AddAreaMonitoring(ctx, in)
	})
}

func (c *Client) UpdateAreaMonitoring(ctx context.Context, in backend.AreaMonitoringInput) error {
	return c.write(ctx, "updateAreaMonitoring", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateAreaMonitoring(ctx, in)
	})
}

func (c *Client) AddOutreachCamp(ctx context.Context, in backend.OutreachCampInput) error {
	return c.write(ctx, "addOutreachCamp", func(ctx context.Context, b backend.Backend) error {
		return b.AddOutreachCamp(ctx, in)
	})
}

func (c *Client) UpdateOutreachCamp(ctx context.Context, id uint64, in backend.OutreachCampInput) error {
	return c.write(ctx, "updateOutreachCamp", func(ctx context.Context, b backend.Backend) error {
		return b.UpdateOutreachCamp(ctx, id, in)
	})
}

func (c *Client) SendMessage(ctx context.Context, recipient principal.Principal, content string, isSupport bool) error {
	return c.write(ctx, "sendMessage", func(ctx context.Context, b backend.Backend) error {
		return b.SendMessage(ctx, recipient, content, isSupport)
	})
}

func (c *Client) MarkMessageAsRead(ctx context.Context, id uint64) error {
	return c.write(ctx, "markMessageAsRead", func(ctx context.Context, b backend.Backend) error {
		return b.MarkMessageAsRead(ctx, id)
	})
}

// UpdateUserActivity touches nothing in the cache.
func (c *Client) UpdateUserActivity(ctx context.Context) error {
	if c.actor == nil {
		return backend.ErrActorUnavailable
	}
	return c.actor.UpdateUserActivity(ctx)
}

func (c *Client) SetAppURL(ctx context.Context, url string) error {
	return c.write(ctx, "setAppUrl", func(ctx context.Context, b backend.Backend) error {
		return b.SetAppURL(ctx, url)
	})
}
