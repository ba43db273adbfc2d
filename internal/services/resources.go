package services

import (
	"context"
	"net/url"
	"strings"
)

type Helpline struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Description  string `json:"description"`
	Availability string `json:"availability"`
}

var Helplines = []Helpline{
	{
		Name:         "National Suicide Prevention Lifeline",
		Phone:        "988",
		Description:  "Free and confidential support for people in distress, prevention and crisis resources.",
		Availability: "24/7",
	},
	{
		Name:         "Crisis Text Line",
		Phone:        "Text HOME to 741741",
		Description:  "Free, 24/7 support for those in crisis via text message.",
		Availability: "24/7",
	},
	{
		Name:         "SAMHSA National Helpline",
		Phone:        "1-800-662-4357",
		Description:  "Treatment referral and information service for mental health and substance use disorders.",
		Availability: "24/7",
	},
	{
		Name:         "National Alliance on Mental Illness (NAMI)",
		Phone:        "1-800-950-6264",
		Description:  "Information, resource referrals and support for people living with mental health conditions.",
		Availability: "Mon-Fri, 10am-10pm ET",
	},
	{
		Name:         "International Association for Suicide Prevention",
		Phone:        "Visit website for country-specific numbers",
		Description:  "Global directory of crisis centers and helplines.",
		Availability: "Varies by location",
	},
}

type OnlineResource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

var OnlineResources = []OnlineResource{
	{Name: "BetterHelp", URL: "https://www.betterhelp.com", Description: "Online counseling with licensed therapists."},
	{Name: "Talkspace", URL: "https://www.talkspace.com", Description: "Therapy and psychiatry through messaging and video."},
	{Name: "MentalHealth.gov", URL: "https://www.mentalhealth.gov", Description: "Government information on mental health and getting help."},
	{Name: "Anxiety and Depression Association of America", URL: "https://adaa.org", Description: "Resources for understanding anxiety and depression."},
}

// ShareText is the message attached to every share link.
const ShareText = "Check out From Stigma to Support - A comprehensive academic wellness support platform"

type ShareLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url,omitempty"`
	// CopyOnly platforms have no share endpoint; the client copies AppURL.
	CopyOnly bool   `json:"copy_only,omitempty"`
	Toast    string `json:"toast,omitempty"`
}

type ShareLinks struct {
	AppURL string      `json:"app_url"`
	Links  []ShareLink `json:"links"`
}

// BuildShareLinks returns the per-platform share targets for appURL.
func BuildShareLinks(appURL string) ShareLinks {
	enc := encodeComponent
	return ShareLinks{
		AppURL: appURL,
		Links: []ShareLink{
			{Platform: "whatsapp", URL: "https://wa.me/?text=" + enc(ShareText+" "+appURL)},
			{Platform: "facebook", URL: "https://www.facebook.com/sharer/sharer.php?u=" + enc(appURL)},
			{Platform: "twitter", URL: "https://twitter.com/intent/tweet?text=" + enc(ShareText) + "&url=" + enc(appURL)},
			{Platform: "messenger", URL: "https://www.facebook.com/dialog/send?link=" + enc(appURL) + "&app_id=YOUR_APP_ID&redirect_uri=" + enc(appURL)},
			{Platform: "instagram", CopyOnly: true, Toast: "Link copied! Share it on Instagram"},
		},
	}
}

func normalizeAppURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || raw == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", NewInvalidError("Please enter a valid http(s) URL")
	}
	return raw, nil
}

type AppURLSource interface {
	AppURL(ctx context.Context) (string, error)
}

type ResourcesService struct {
	store     AppURLSource
	publicURL string
}

// NewResourcesService falls back to publicURL when the actor has no app URL.
func NewResourcesService(store AppURLSource, publicURL string) *ResourcesService {
	return &ResourcesService{store: store, publicURL: publicURL}
}

type Resources struct {
	Helplines       []Helpline       `json:"helplines"`
	OnlineResources []OnlineResource `json:"online_resources"`
	Share           ShareLinks       `json:"share"`
}

func (s *ResourcesService) AppURL(ctx context.Context) string {
	if s.store != nil {
		if u, err := s.store.AppURL(ctx); err == nil && strings.TrimSpace(u) != "" {
			return u
		}
	}
	return s.publicURL
}

func (s *ResourcesService) Share(ctx context.Context) ShareLinks {
	return BuildShareLinks(s.AppURL(ctx))
}

func (s *ResourcesService) All(ctx context.Context) Resources {
	return Resources{Helplines: Helplines, OnlineResources: OnlineResources, Share: s.Share(ctx)}
}
