package queries

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/backend/backendtest"
	"github.com/soaringjerry/supportportal/internal/principal"
	"github.com/soaringjerry/supportportal/internal/query"
)

func clientFor(t *testing.T, f *backendtest.Fake, p principal.Principal) *Client {
	t.Helper()
	id := backend.Identity{Principal: p}
	actor, err := f.Actor(context.Background(), id)
	require.NoError(t, err)
	return New(actor, id, query.New(query.Options{StaleTime: time.Hour}))
}

func TestDisabledQueriesNeverReachActor(t *testing.T) {
	f := backendtest.New()
	ctx := context.Background()

	anon := clientFor(t, f, principal.Anonymous)
	moods, err := anon.MoodEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, moods)
	isAdmin, err := anon.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, isAdmin)
	msgs, err := anon.Messages(ctx)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Equal(t, 0, f.Calls("getUserMoodEntries"))
	assert.Equal(t, 0, f.Calls("isCallerAdmin"))
	assert.Equal(t, 0, f.Calls("getMessagesByUser"))

	noActor := New(nil, backend.Identity{Principal: principal.SelfAuthenticating([]byte("u"))}, nil)
	posts, err := noActor.CommunityPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 0, f.Calls("getAllCommunityPosts"))

	_, err = anon.CommunityPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls("getAllCommunityPosts"))
}

func TestWritesWithoutActorFail(t *testing.T) {
	c := New(nil, backend.Identity{}, nil)
	err := c.AddMoodEntry(context.Background(), "happy")
	assert.ErrorIs(t, err, backend.ErrActorUnavailable)
	assert.Equal(t, "Actor not available", err.Error())
	_, err = c.CheckAndAssignAdmin(context.Background())
	assert.ErrorIs(t, err, backend.ErrActorUnavailable)
}

func TestCreatePostInvalidatesFeed(t *testing.T) {
	f := backendtest.New()
	ctx := context.Background()
	c := clientFor(t, f, principal.SelfAuthenticating([]byte("alice")))

	_, _ = c.CommunityPosts(ctx)
	_, _ = c.CommunityPosts(ctx)
	assert.Equal(t, 1, f.Calls("getAllCommunityPosts"))

	require.NoError(t, c.CreateCommunityPost(ctx, "hello", false))
	posts, err := c.CommunityPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, 2, f.Calls("getAllCommunityPosts"))
}

func TestInstitutionWriteInvalidatesAnalytics(t *testing.T) {
	f := backendtest.New()
	ctx := context.Background()
	admin := principal.SelfAuthenticating([]byte("admin"))
	f.SetRole(admin, backend.RoleAdmin)
	c := clientFor(t, f, admin)

	_, _ = c.DashboardAnalytics(ctx)
	_, _ = c.Institutions(ctx)
	_, _ = c.MoodEntries(ctx)
	require.NoError(t, c.AddInstitution(ctx, backend.InstitutionInput{Name: "School", AwarenessRating: 4}))

	assert.True(t, c.Cache().Stale(KeyInstitutions))
	assert.True(t, c.Cache().Stale(KeyDashboardAnalytics))
	assert.False(t, c.Cache().Stale(scoped(KeyMoodEntries, admin)))

	a, err := c.DashboardAnalytics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.TotalInstitutions)
}

func TestMessageWritesInvalidateBothLists(t *testing.T) {
	f := backendtest.New()
	ctx := context.Background()
	me := principal.SelfAuthenticating([]byte("me"))
	f.SetRole(me, backend.RoleAdmin)
	c := clientFor(t, f, me)

	_, _ = c.Messages(ctx)
	_, _ = c.AllMessages(ctx)
	_, _ = c.ConversationIDs(ctx)
	require.NoError(t, c.SendMessage(ctx, principal.SelfAuthenticating([]byte("you")), "hi", false))

	assert.True(t, c.Cache().Stale(scoped(KeyMessages, me)))
	assert.True(t, c.Cache().Stale(KeyAllMessages))
	assert.True(t, c.Cache().Stale(scoped(KeyConversations, me)))
}

func TestCheckAndAssignAdminInvalidatesOnlyOnPromotion(t *testing.T) {
	f := backendtest.New()
	ctx := context.Background()
	firstID := principal.SelfAuthenticating([]byte("first"))
	secondID := principal.SelfAuthenticating([]byte("second"))
	first := clientFor(t, f, firstID)
	second := clientFor(t, f, secondID)
	seed := func(c *Client, p principal.Principal) {
		_, err := c.Cache().Fetch(ctx, scoped(KeyIsAdmin, p), func(context.Context) (any, error) { return false, nil })
		require.NoError(t, err)
	}
	seed(first, firstID)
	seed(second, secondID)

	promoted, err := first.CheckAndAssignAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.True(t, first.Cache().Stale(scoped(KeyIsAdmin, firstID)))

	promoted, err = second.CheckAndAssignAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.False(t, second.Cache().Stale(scoped(KeyIsAdmin, secondID)))

	isAdmin, err := first.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestIsCallerAdminAlwaysRefetches(t *testing.T) {
	f := backendtest.New()
	c := clientFor(t, f, principal.SelfAuthenticating([]byte("x")))
	_, _ = c.IsCallerAdmin(context.Background())
	_, _ = c.IsCallerAdmin(context.Background())
	assert.Equal(t, 2, f.Calls("isCallerAdmin"))
}

func TestCheckContentIsNotCached(t *testing.T) {
	f := backendtest.New()
	c := clientFor(t, f, principal.SelfAuthenticating([]byte("x")))
	for i := 0; i < 3; i++ {
		_, err := c.CheckContent(context.Background(), "same text")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.Calls("checkContent"))
}

func TestFailedWriteKeepsCache(t *testing.T) {
	f := backendtest.New()
	ctx := context.Background()
	c := clientFor(t, f, principal.SelfAuthenticating([]byte("x")))
	_, _ = c.CommunityPosts(ctx)

	f.Reject("createCommunityPost", "Unauthorized: nope")
	require.Error(t, c.CreateCommunityPost(ctx, "hi", false))
	assert.False(t, c.Cache().Stale(KeyCommunityPosts))
}

func TestInvalidationTableCoversEveryWrite(t *testing.T) {
	for _, m := range []string{
		"saveCallerUserProfile", "setUserLanguagePreference", "checkAndAssignAdmin",
		"assignUserRole", "assignCallerUserRole", "createCommunityPost", "updateCommunityPost",
		"deletePost", "moderatePost", "addMoodEntry", "submitStressQuiz",
		"createTherapySessionRequest", "reportArea", "updateAreaCampaigns", "addInstitution",
		"updateInstitution", "addAreaMonitoring", "updateAreaMonitoring", "addOutreachCamp",
		"updateOutreachCamp", "sendMessage", "markMessageAsRead", "setAppUrl",
	} {
		assert.NotEmpty(t, Invalidations[m], m)
	}
	assert.Empty(t, Invalidations["checkContent"])
	assert.Empty(t, Invalidations["updateUserActivity"])
}
