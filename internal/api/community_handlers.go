package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/supportportal/internal/services"
)

// GET /api/community/posts
func (rt *Router) handleFeed(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	feed, err := services.NewCommunityService(c).Feed(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": feed})
}

type postRequest struct {
	Content   string `json:"content"`
	Anonymous bool   `json:"anonymous"`
}

// POST /api/community/posts {content, anonymous}
func (rt *Router) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionCreatePost, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionCreatePost, err)
		return
	}
	if rt.mutate(w, r, services.ActionCreatePost, "createCommunityPost", "", func() error {
		return services.NewCommunityService(c).Create(r.Context(), req.Content, req.Anonymous)
	}) {
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "toast": "Post created successfully"})
	}
}

// PUT /api/community/posts/{id} {content}
func (rt *Router) handleEditPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionEditPost, err)
		return
	}
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionEditPost, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionEditPost, err)
		return
	}
	if rt.mutate(w, r, services.ActionEditPost, "updateCommunityPost", r.PathValue("id"), func() error {
		return services.NewCommunityService(c).Edit(r.Context(), id, req.Content)
	}) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "toast": "Post updated successfully"})
	}
}

// DELETE /api/community/posts/{id}?confirm=true
func (rt *Router) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionDeletePost, err)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionDeletePost, err)
		return
	}
	if rt.mutate(w, r, services.ActionDeletePost, "deletePost", r.PathValue("id"), func() error {
		return services.NewCommunityService(c).Delete(r.Context(), id, confirmed)
	}) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "toast": "Post deleted successfully"})
	}
}

// POST /api/community/posts/{id}/moderate {flag}
func (rt *Router) handleModeratePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionModeratePost, err)
		return
	}
	var req struct {
		Flag bool `json:"flag"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionModeratePost, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionModeratePost, err)
		return
	}
	if rt.mutate(w, r, services.ActionModeratePost, "moderatePost", r.PathValue("id"), func() error {
		return services.NewCommunityService(c).Moderate(r.Context(), id, req.Flag)
	}) {
		ok(w)
	}
}
