package services

import (
	"context"
	"sort"
	"strings"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

const (
	msgPostInappropriate   = "Your post contains inappropriate content. Please revise and try again."
	msgEditInappropriate   = "Your edited post contains inappropriate content. Please revise and try again."
	msgDeleteNeedsConfirm  = "Are you sure you want to delete this post? This action cannot be undone."
	anonymousAuthorDisplay = "Anonymous"
)

type CommunityStore interface {
	Caller() principal.Principal
	CommunityPosts(ctx context.Context) ([]backend.CommunityPost, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	CheckContent(ctx context.Context, text string) (backend.ContentFiltered, error)
	CreateCommunityPost(ctx context.Context, content string, anonymous bool) error
	UpdateCommunityPost(ctx context.Context, id uint64, content string) error
	DeletePost(ctx context.Context, id uint64) error
	ModeratePost(ctx context.Context, id uint64, flag bool) error
}

type CommunityService struct {
	store CommunityStore
}

func NewCommunityService(store CommunityStore) *CommunityService {
	return &CommunityService{store: store}
}

// PostView is a post plus what the caller may do with it.
type PostView struct {
	backend.CommunityPost
	// AuthorLabel never names the author; the feed only ever shows "Anonymous".
	AuthorLabel string `json:"author_label"`
	CanEdit     bool   `json:"can_edit"`
	CanDelete   bool   `json:"can_delete"`
	CanModerate bool   `json:"can_moderate"`
}

// CanModify reports whether caller may edit or delete post: authors and admins only.
func CanModify(post backend.CommunityPost, caller principal.Principal, isAdmin bool) bool {
	if !caller.Authenticated() {
		return false
	}
	return isAdmin || post.Author == caller
}

// SortNewestFirst orders posts by timestamp, newest first.
func SortNewestFirst(posts []backend.CommunityPost) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Timestamp > posts[j].Timestamp })
}

func (s *CommunityService) isAdmin(ctx context.Context) bool {
	// A failed role check only hides admin affordances; the actor still decides.
	ok, err := s.store.IsCallerAdmin(ctx)
	return err == nil && ok
}

// Feed returns the community feed, newest first.
func (s *CommunityService) Feed(ctx context.Context) ([]PostView, error) {
	posts, err := s.store.CommunityPosts(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]backend.CommunityPost(nil), posts...)
	SortNewestFirst(sorted)
	caller := s.store.Caller()
	admin := caller.Authenticated() && s.isAdmin(ctx)
	out := make([]PostView, 0, len(sorted))
	for _, p := range sorted {
		can := CanModify(p, caller, admin)
		out = append(out, PostView{
			CommunityPost: p,
			AuthorLabel:   anonymousAuthorDisplay,
			CanEdit:       can,
			CanDelete:     can,
			CanModerate:   admin,
		})
	}
	return out, nil
}

func (s *CommunityService) screen(ctx context.Context, content, rejection string) error {
	verdict, err := s.store.CheckContent(ctx, content)
	if err != nil {
		return err
	}
	if !verdict.Passed {
		return NewRejectedError(rejection)
	}
	return nil
}

// Create checks the content before posting; rejected content never reaches the write.
func (s *CommunityService) Create(ctx context.Context, content string, anonymous bool) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError("Please login to post")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return NewInvalidError("Please enter some content")
	}
	if err := s.screen(ctx, content, msgPostInappropriate); err != nil {
		return err
	}
	return s.store.CreateCommunityPost(ctx, content, anonymous)
}

func (s *CommunityService) find(ctx context.Context, id uint64) (*backend.CommunityPost, error) {
	posts, err := s.store.CommunityPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}
	return nil, NewNotFoundError("Post not found")
}

func (s *CommunityService) authorize(ctx context.Context, id uint64, verb string) error {
	caller := s.store.Caller()
	if !caller.Authenticated() {
		return NewUnauthorizedError("Please login to " + verb + " posts")
	}
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(*post, caller, s.isAdmin(ctx)) {
		return NewForbiddenError("You do not have permission to " + verb + " this post")
	}
	return nil
}

// Edit re-runs the content check on every save.
func (s *CommunityService) Edit(ctx context.Context, id uint64, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return NewInvalidError("Please enter some content")
	}
	if err := s.authorize(ctx, id, "edit"); err != nil {
		return err
	}
	if err := s.screen(ctx, content, msgEditInappropriate); err != nil {
		return err
	}
	return s.store.UpdateCommunityPost(ctx, id, content)
}

// Delete requires confirmed to be set by an explicit user confirmation.
func (s *CommunityService) Delete(ctx context.Context, id uint64, confirmed bool) error {
	if err := s.authorize(ctx, id, "delete"); err != nil {
		return err
	}
	if !confirmed {
		return NewConfirmationRequiredError(msgDeleteNeedsConfirm)
	}
	return s.store.DeletePost(ctx, id)
}

// Moderate sets or clears a post's moderation flag. Admins only.
func (s *CommunityService) Moderate(ctx context.Context, id uint64, flag bool) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError("Please login to moderate posts")
	}
	if !s.isAdmin(ctx) {
		return NewForbiddenError("You do not have permission to moderate this post")
	}
	return s.store.ModeratePost(ctx, id, flag)
}
