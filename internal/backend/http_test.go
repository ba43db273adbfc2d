package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/supportportal/internal/principal"
)

type recordedCall struct {
	method string
	caller string
	auth   string
	args   map[string]any
}

func gateway(t *testing.T, replies map[string]string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		method := r.URL.Path[len("/rpc/"):]
		var a map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		calls = append(calls, recordedCall{
			method: method,
			caller: r.Header.Get("X-Caller-Principal"),
			auth:   r.Header.Get("Authorization"),
			args:   a,
		})
		body, ok := replies[method]
		if !ok {
			body = `{"ok":null}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func actorFor(t *testing.T, base string, id Identity) Backend {
	t.Helper()
	b, err := NewHTTPConnector(base, time.Second).Actor(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestHTTPClientSendsIdentityAndArgs(t *testing.T) {
	srv, calls := gateway(t, nil)
	who := principal.SelfAuthenticating([]byte("alice"))
	b := actorFor(t, srv.URL, Identity{Principal: who, Delegation: "deleg"})

	require.NoError(t, b.CreateCommunityPost(context.Background(), "hello", true))

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "createCommunityPost", got.method)
	assert.Equal(t, who.String(), got.caller)
	assert.Equal(t, "Bearer deleg", got.auth)
	assert.Equal(t, "hello", got.args["content"])
	assert.Equal(t, true, got.args["anonymous"])
}

func TestHTTPClientDecodesValues(t *testing.T) {
	srv, _ := gateway(t, map[string]string{
		"getAllCommunityPosts": `{"ok":[{"id":3,"author":"2vxsx-fae","content":"hi","anonymous":false,"moderationFlag":true,"timestamp":42}]}`,
		"getCallerUserProfile": `{"ok":null}`,
		"checkContent":         `{"ok":{"filteredText":"***","passed":false}}`,
	})
	b := actorFor(t, srv.URL, Identity{})
	ctx := context.Background()

	posts, err := b.GetAllCommunityPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, uint64(3), posts[0].ID)
	assert.True(t, posts[0].Author.IsAnonymous())
	assert.Equal(t, Time(42), posts[0].Timestamp)

	profile, err := b.GetCallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	verdict, err := b.CheckContent(ctx, "bad words")
	require.NoError(t, err)
	assert.False(t, verdict.Passed)
}

func TestHTTPClientRemoteRejection(t *testing.T) {
	srv, _ := gateway(t, map[string]string{
		"deletePost": `{"err":"Unauthorized: Only the author or admins can delete posts"}`,
	})
	b := actorFor(t, srv.URL, Identity{})

	err := b.DeletePost(context.Background(), 9)
	require.Error(t, err)
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "deletePost", re.Method)
	assert.Equal(t, "Unauthorized: Only the author or admins can delete posts", err.Error())
	assert.True(t, IsRemote(err))
}

func TestHTTPClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	b := actorFor(t, srv.URL, Identity{})

	_, err := b.IsCallerAdmin(context.Background())
	require.Error(t, err)
	assert.False(t, IsRemote(err))
}

func TestHTTPConnectorWithoutBaseURL(t *testing.T) {
	_, err := (&HTTPConnector{}).Actor(context.Background(), Identity{})
	assert.ErrorIs(t, err, ErrActorUnavailable)
}

func TestHTTPClientEmptyCampaignsSentAsList(t *testing.T) {
	srv, calls := gateway(t, nil)
	b := actorFor(t, srv.URL, Identity{})

	require.NoError(t, b.UpdateAreaCampaigns(context.Background(), "north", nil))
	got := (*calls)[0].args["newCampaigns"]
	assert.Equal(t, []any{}, got)
}
