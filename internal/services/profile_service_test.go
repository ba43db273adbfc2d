package services

import (
	"context"
	"testing"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

func validForm() ProfileForm {
	return ProfileForm{Email: "a@example.com", Name: "Alice", Age: "21", Username: "alice", AgreedToGuidelines: true}
}

func TestValidateProfileAgeBounds(t *testing.T) {
	cases := []struct {
		age string
		ok  bool
	}{
		{"12", false},
		{"13", true},
		{"120", true},
		{"121", false},
		{"abc", false},
		{"-1", false},
	}
	for _, c := range cases {
		f := validForm()
		f.Age = c.age
		_, err := ValidateProfile(f)
		if (err == nil) != c.ok {
			t.Fatalf("age %q: err=%v, want ok=%v", c.age, err, c.ok)
		}
	}
}

func TestValidateProfileRequiredFields(t *testing.T) {
	f := validForm()
	f.Username = "  "
	if _, err := ValidateProfile(f); err == nil || err.Error() != "Please fill in all fields" {
		t.Fatalf("unexpected %v", err)
	}
	f = validForm()
	f.AgreedToGuidelines = false
	if _, err := ValidateProfile(f); err == nil || err.Error() != "Please agree to the community guidelines" {
		t.Fatalf("unexpected %v", err)
	}
	f = validForm()
	f.Language = "klingon"
	if _, err := ValidateProfile(f); err == nil {
		t.Fatalf("expected unsupported language")
	}
}

func TestProfileSaveAndStatus(t *testing.T) {
	st := newStub(alice)
	svc := NewProfileService(st)
	status, err := svc.Status(context.Background())
	if err != nil || !status.SetupRequired {
		t.Fatalf("expected setup required, got %+v %v", status, err)
	}
	f := validForm()
	f.Language = "Hindi"
	p, err := svc.Save(context.Background(), f)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := st.last["saveCallerUserProfile"].(backend.UserProfile)
	if saved.Age != 21 || *saved.LanguagePreference != backend.LanguageHindi || p.Username != "alice" {
		t.Fatalf("unexpected saved profile %+v", saved)
	}

	st.profile = p
	status, _ = svc.Status(context.Background())
	if status.SetupRequired {
		t.Fatalf("setup should not be required once a profile exists")
	}
}

func TestProfileSignedOut(t *testing.T) {
	st := newStub(principal.Anonymous)
	svc := NewProfileService(st)
	status, err := svc.Status(context.Background())
	if err != nil || status.SetupRequired {
		t.Fatalf("signed-out caller never needs setup: %+v %v", status, err)
	}
	if _, err := svc.Save(context.Background(), validForm()); err == nil {
		t.Fatalf("expected login error")
	}
	if err := svc.SetLanguage(context.Background(), "french"); err == nil {
		t.Fatalf("expected login error")
	}
}
