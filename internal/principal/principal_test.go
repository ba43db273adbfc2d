package principal

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestWellKnownPrincipals(t *testing.T) {
	if got := FromBytes(nil).String(); got != "aaaaa-aa" {
		t.Fatalf("management principal = %q, want aaaaa-aa", got)
	}
	if got := Anonymous.String(); got != "2vxsx-fae" {
		t.Fatalf("anonymous principal = %q, want 2vxsx-fae", got)
	}
	if !Anonymous.IsAnonymous() || Anonymous.Authenticated() {
		t.Fatalf("anonymous flags wrong")
	}
	if !(Principal{}).IsZero() {
		t.Fatalf("zero value should be zero")
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, seed := range []string{"alice", "bob", "a public key of some length"} {
		p := SelfAuthenticating([]byte(seed))
		got, err := Parse(p.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", p, err)
		}
		if got != p {
			t.Fatalf("round trip mismatch: %q vs %q", got, p)
		}
		if len(got.Bytes()) != 29 {
			t.Fatalf("self-authenticating principal should have 29 bytes, got %d", len(got.Bytes()))
		}
		if !got.Authenticated() {
			t.Fatalf("expected authenticated principal")
		}
	}
}

func TestParseAcceptsUppercase(t *testing.T) {
	if _, err := Parse("2VXSX-FAE"); err != nil {
		t.Fatalf("uppercase should parse: %v", err)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	good := SelfAuthenticating([]byte("carol")).String()
	tampered := []byte(good)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	cases := map[string]error{
		"":                 ErrEmpty,
		"not a principal!": ErrMalformed,
		"aaaaaaa":          ErrMalformed,
		string(tampered):   ErrChecksum,
		"2vxs-xfae":        ErrMalformed,
	}
	for in, want := range cases {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("Parse(%q) should fail", in)
		}
		if !errors.Is(err, want) {
			t.Fatalf("Parse(%q) error = %v, want %v", in, err, want)
		}
	}
}

func TestJSON(t *testing.T) {
	type wrap struct {
		Who Principal `json:"who"`
	}
	in := wrap{Who: SelfAuthenticating([]byte("dave"))}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out wrap
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Who != in.Who {
		t.Fatalf("json round trip mismatch")
	}
	if err := json.Unmarshal([]byte(`{"who":"zzz"}`), &out); err == nil {
		t.Fatalf("expected error for malformed principal")
	}
}
