package api

import (
	"bytes"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/middleware"
	"github.com/soaringjerry/supportportal/internal/queries"
	"github.com/soaringjerry/supportportal/internal/services"
	"github.com/soaringjerry/supportportal/internal/utils"
	"github.com/soaringjerry/supportportal/internal/views"
)

// pageState carries what a form post wants shown on the re-rendered page.
type pageState struct {
	status  int
	toasts  []views.ToastData
	profile *services.ProfileForm
	formErr string
}

func successToast(msg string) pageState {
	return pageState{status: http.StatusOK, toasts: []views.ToastData{{Kind: views.ToastSuccess, Message: msg}}}
}

func errorToast(action services.Action, err error) pageState {
	return pageState{status: statusFor(err), toasts: []views.ToastData{{Kind: views.ToastError, Message: services.Toast(action, err)}}}
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderCommunity draws the community page for the caller. A load failure
// still renders the page, with an error toast in place of the feed.
func (rt *Router) renderCommunity(w http.ResponseWriter, r *http.Request, st pageState) {
	ctx := r.Context()
	if st.status == 0 {
		st.status = http.StatusOK
	}
	locale := middleware.LocaleFromContext(ctx)
	page := views.Page{
		Title:  utils.T(locale, "nav.community"),
		Locale: locale,
		Crisis: utils.T(locale, "crisis.banner"),
		Toasts: st.toasts,
	}
	c, err := rt.client(r)
	if err != nil {
		rt.renderFailure(w, r, page, err)
		return
	}
	sess, err := services.NewAdminService(c).Session(ctx)
	if err != nil {
		rt.renderFailure(w, r, page, err)
		return
	}
	page.Session = *sess
	page.Promoted = sess.IsAdmin && r.URL.Query().Get("promoted") == "1"

	if page.Posts, err = services.NewCommunityService(c).Feed(ctx); err != nil {
		page.Toasts = append(page.Toasts, views.ToastData{Kind: views.ToastError, Message: services.Toast(services.ActionLoad, err)})
	}
	if sess.Authenticated {
		rt.decorateForMember(r, c, &page, st)
	}

	var buf bytes.Buffer
	if err := rt.views.Page(&buf, page); err != nil {
		rt.log.Error("render page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, st.status, &buf)
}

// decorateForMember adds the unread badge and, until the caller has a
// profile, the setup dialog.
func (rt *Router) decorateForMember(r *http.Request, c *queries.Client, page *views.Page, st pageState) {
	ctx := r.Context()
	if inbox, err := services.NewMessagingService(c, rt.marker).Inbox(ctx); err == nil && inbox.TotalUnread > 0 {
		page.Unread = uint64(inbox.TotalUnread)
	}
	status, err := services.NewProfileService(c).Status(ctx)
	if err != nil || !status.SetupRequired {
		return
	}
	form := services.ProfileForm{Language: utils.LanguageFor(page.Locale)}
	if st.profile != nil {
		form = *st.profile
	}
	guidelines, _ := c.CommunityGuidelines(ctx)
	d := views.NewProfileDialog(form, guidelines, st.formErr)
	page.ProfileDialog = &d
}

func (rt *Router) renderFailure(w http.ResponseWriter, r *http.Request, page views.Page, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		rt.log.Warn("page load failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
	}
	page.Toasts = append(page.Toasts, views.ToastData{Kind: views.ToastError, Message: services.Toast(services.ActionLoad, err)})
	var buf bytes.Buffer
	if rerr := rt.views.Page(&buf, page); rerr != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

// renderCard answers with a single post card, as the caller sees it. The
// delete confirmation answers 409 so the first unconfirmed post is visible
// as not applied.
func (rt *Router) renderCard(w http.ResponseWriter, r *http.Request, id uint64, want views.PostCard) {
	c, err := rt.client(r)
	if err != nil {
		rt.renderToast(w, r, services.ActionLoad, err)
		return
	}
	feed, err := services.NewCommunityService(c).Feed(r.Context())
	if err != nil {
		rt.renderToast(w, r, services.ActionLoad, err)
		return
	}
	for _, p := range feed {
		if p.ID != id {
			continue
		}
		if want.Editing && !p.CanEdit {
			rt.renderToast(w, r, services.ActionEditPost, services.NewForbiddenError("You do not have permission to edit this post"))
			return
		}
		want.Post = p
		var buf bytes.Buffer
		if err := rt.views.CommunityPostCard(&buf, want); err != nil {
			rt.log.Error("render card", zap.Error(err))
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		status := http.StatusOK
		if want.Confirming {
			status = http.StatusConflict
		}
		writeHTML(w, status, &buf)
		return
	}
	rt.renderToast(w, r, services.ActionLoad, services.NewNotFoundError("Post not found"))
}

func (rt *Router) renderToast(w http.ResponseWriter, r *http.Request, action services.Action, err error) {
	var buf bytes.Buffer
	_ = rt.views.Toast(&buf, views.ToastData{Kind: views.ToastError, Message: services.Toast(action, err)})
	writeHTML(w, statusFor(err), &buf)
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.PostFormValue(key))
	return v
}

// GET /ui/community
func (rt *Router) handleCommunityPage(w http.ResponseWriter, r *http.Request) {
	rt.renderCommunity(w, r, pageState{})
}

// GET /ui/community/posts/{id}
func (rt *Router) handleUIPostCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.renderToast(w, r, services.ActionLoad, err)
		return
	}
	rt.renderCard(w, r, id, views.PostCard{})
}

// GET /ui/community/posts/{id}/edit
func (rt *Router) handleUIEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.renderToast(w, r, services.ActionEditPost, err)
		return
	}
	rt.renderCard(w, r, id, views.PostCard{Editing: true})
}

// uiWrite parses the posted form, applies fn and re-renders the page with
// the matching toast.
func (rt *Router) uiWrite(w http.ResponseWriter, r *http.Request, action services.Action, method, success string, fn func(c *queries.Client) error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		rt.renderCommunity(w, r, errorToast(action, services.NewInvalidError("invalid form")))
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.renderCommunity(w, r, errorToast(action, err))
		return
	}
	if err := rt.apply(r, method, r.PathValue("id"), func() error { return fn(c) }); err != nil {
		rt.renderCommunity(w, r, errorToast(action, err))
		return
	}
	rt.renderCommunity(w, r, successToast(success))
}

// POST /ui/community/posts
func (rt *Router) handleUICreatePost(w http.ResponseWriter, r *http.Request) {
	rt.uiWrite(w, r, services.ActionCreatePost, "createCommunityPost", "Post created successfully", func(c *queries.Client) error {
		return services.NewCommunityService(c).Create(r.Context(), r.PostFormValue("content"), formBool(r, "anonymous"))
	})
}

// POST /ui/community/posts/{id}/edit
func (rt *Router) handleUIEditPost(w http.ResponseWriter, r *http.Request) {
	rt.uiWrite(w, r, services.ActionEditPost, "updateCommunityPost", "Post updated successfully", func(c *queries.Client) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		return services.NewCommunityService(c).Edit(r.Context(), id, r.PostFormValue("content"))
	})
}

// POST /ui/community/posts/{id}/delete
//
// Without confirm=true nothing is deleted; a permitted caller gets the card
// back with the confirmation form.
func (rt *Router) handleUIDeletePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		rt.renderCommunity(w, r, errorToast(services.ActionDeletePost, services.NewInvalidError("invalid form")))
		return
	}
	if !formBool(r, "confirm") {
		rt.askDeleteConfirmation(w, r)
		return
	}
	rt.uiWrite(w, r, services.ActionDeletePost, "deletePost", "Post deleted successfully", func(c *queries.Client) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		return services.NewCommunityService(c).Delete(r.Context(), id, true)
	})
}

func (rt *Router) askDeleteConfirmation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.renderCommunity(w, r, errorToast(services.ActionDeletePost, err))
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.renderCommunity(w, r, errorToast(services.ActionDeletePost, err))
		return
	}
	err = services.NewCommunityService(c).Delete(r.Context(), id, false)
	if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorConfirmationRequired {
		rt.renderCard(w, r, id, views.PostCard{Confirming: true})
		return
	}
	rt.renderCommunity(w, r, errorToast(services.ActionDeletePost, err))
}

// POST /ui/community/posts/{id}/moderate
func (rt *Router) handleUIModeratePost(w http.ResponseWriter, r *http.Request) {
	rt.uiWrite(w, r, services.ActionModeratePost, "moderatePost", "Post moderation updated", func(c *queries.Client) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		return services.NewCommunityService(c).Moderate(r.Context(), id, formBool(r, "flag"))
	})
}

// POST /ui/profile
//
// A rejected form keeps the dialog open with what was typed.
func (rt *Router) handleUISaveProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		rt.renderCommunity(w, r, errorToast(services.ActionSaveProfile, services.NewInvalidError("invalid form")))
		return
	}
	form := services.ProfileForm{
		Name:               r.PostFormValue("name"),
		Username:           r.PostFormValue("username"),
		Email:              r.PostFormValue("email"),
		Age:                r.PostFormValue("age"),
		Language:           r.PostFormValue("language"),
		AgreedToGuidelines: formBool(r, "agreed_to_guidelines"),
	}
	c, err := rt.client(r)
	if err != nil {
		rt.renderCommunity(w, r, errorToast(services.ActionSaveProfile, err))
		return
	}
	err = rt.apply(r, "saveCallerUserProfile", "", func() error {
		_, err := services.NewProfileService(c).Save(r.Context(), form)
		return err
	})
	if err != nil {
		st := errorToast(services.ActionSaveProfile, err)
		st.profile = &form
		st.formErr = services.Toast(services.ActionSaveProfile, err)
		rt.renderCommunity(w, r, st)
		return
	}
	rt.renderCommunity(w, r, successToast("Profile created successfully"))
}
