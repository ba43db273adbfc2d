package services

import (
	"context"
	"errors"
	"testing"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

func seededPosts() []backend.CommunityPost {
	return []backend.CommunityPost{
		{ID: 1, Author: alice, Content: "first", Timestamp: 10},
		{ID: 2, Author: bob, Content: "second", Anonymous: true, Timestamp: 30},
		{ID: 3, Author: alice, Content: "third", Timestamp: 20, ModerationFlag: true},
	}
}

func TestCreateBlockedByContentCheck(t *testing.T) {
	st := newStub(alice)
	st.verdict = backend.ContentFiltered{Passed: false, FilteredText: "***"}
	err := NewCommunityService(st).Create(context.Background(), "bad words", false)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorRejected {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if st.called("createCommunityPost") != 0 {
		t.Fatalf("rejected content must never be posted")
	}
}

func TestCreateContentCheckFailureStopsWrite(t *testing.T) {
	st := newStub(alice)
	st.checkErr = errors.New("check unavailable")
	if err := NewCommunityService(st).Create(context.Background(), "hello", true); err == nil {
		t.Fatalf("expected error")
	}
	if st.called("createCommunityPost") != 0 {
		t.Fatalf("post must not be created when the check fails")
	}
}

func TestCreatePassesTrimmedContent(t *testing.T) {
	st := newStub(alice)
	if err := NewCommunityService(st).Create(context.Background(), "  hello  ", true); err != nil {
		t.Fatalf("Create: %v", err)
	}
	args := st.last["createCommunityPost"].([]any)
	if args[0] != "hello" || args[1] != true {
		t.Fatalf("unexpected create args %v", args)
	}
	if st.last["checkContent"] != "hello" {
		t.Fatalf("checked %v, want trimmed content", st.last["checkContent"])
	}
}

func TestEditRechecksContent(t *testing.T) {
	st := newStub(alice)
	st.posts = seededPosts()
	svc := NewCommunityService(st)
	if err := svc.Edit(context.Background(), 1, "fine"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	st.verdict = backend.ContentFiltered{Passed: false}
	err := svc.Edit(context.Background(), 1, "not fine")
	if se, ok := AsServiceError(err); !ok || se.Message != msgEditInappropriate {
		t.Fatalf("expected edit rejection, got %v", err)
	}
	if st.called("checkContent") != 2 || st.called("updateCommunityPost") != 1 {
		t.Fatalf("calls=%v", st.calls)
	}
}

func TestEditAndDeletePermissions(t *testing.T) {
	st := newStub(carol)
	st.posts = seededPosts()
	svc := NewCommunityService(st)

	err := svc.Edit(context.Background(), 1, "hijack")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorForbidden {
		t.Fatalf("expected forbidden edit, got %v", err)
	}
	err = svc.Delete(context.Background(), 1, true)
	if se, ok := AsServiceError(err); !ok || se.Message != "You do not have permission to delete this post" {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	err = svc.Delete(context.Background(), 99, true)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if st.called("deletePost") != 0 || st.called("updateCommunityPost") != 0 || st.called("checkContent") != 0 {
		t.Fatalf("nothing should reach the actor: %v", st.calls)
	}

	st.admin = true
	if err := svc.Delete(context.Background(), 1, true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	st := newStub(alice)
	st.posts = seededPosts()
	svc := NewCommunityService(st)
	err := svc.Delete(context.Background(), 3, false)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConfirmationRequired {
		t.Fatalf("expected confirmation required, got %v", err)
	}
	if st.called("deletePost") != 0 {
		t.Fatalf("unconfirmed delete reached the actor")
	}
	if err := svc.Delete(context.Background(), 3, true); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if st.last["deletePost"] != uint64(3) {
		t.Fatalf("deleted %v", st.last["deletePost"])
	}
}

func TestFeedOrderAndAffordances(t *testing.T) {
	st := newStub(alice)
	st.posts = seededPosts()
	feed, err := NewCommunityService(st).Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 3 || feed[0].ID != 2 || feed[1].ID != 3 || feed[2].ID != 1 {
		t.Fatalf("feed not newest first: %+v", feed)
	}
	if feed[0].CanDelete || feed[0].AuthorLabel != "Anonymous" {
		t.Fatalf("bob's anonymous post: %+v", feed[0])
	}
	for _, p := range feed {
		if p.AuthorLabel != "Anonymous" {
			t.Fatalf("post %d labelled %q", p.ID, p.AuthorLabel)
		}
	}
	if !feed[1].CanEdit || !feed[1].CanDelete || feed[1].CanModerate {
		t.Fatalf("alice's own post: %+v", feed[1])
	}
	if st.posts[0].ID != 1 {
		t.Fatalf("feed must not reorder the store's slice")
	}
}

func TestFeedAnonymousCallerSkipsAdminCheck(t *testing.T) {
	st := newStub(principal.Principal{})
	st.posts = seededPosts()
	feed, err := NewCommunityService(st).Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	for _, p := range feed {
		if p.CanEdit || p.CanDelete || p.CanModerate {
			t.Fatalf("signed-out caller got affordances: %+v", p)
		}
	}
	if st.called("isCallerAdmin") != 0 {
		t.Fatalf("admin check should be skipped")
	}
}

func TestModerateAdminOnly(t *testing.T) {
	st := newStub(alice)
	svc := NewCommunityService(st)
	if err := svc.Moderate(context.Background(), 1, true); err == nil {
		t.Fatalf("non-admin moderated")
	}
	st.adminErr = errors.New("boom")
	st.admin = true
	if err := svc.Moderate(context.Background(), 1, true); err == nil {
		t.Fatalf("failed admin check must count as non-admin")
	}
	st.adminErr = nil
	if err := svc.Moderate(context.Background(), 1, true); err != nil {
		t.Fatalf("admin moderate: %v", err)
	}
}
