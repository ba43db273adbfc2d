// Package auth turns external login assertions into portal identities.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
	"github.com/soaringjerry/supportportal/internal/services"
)

// DevVerifier accepts a principal's text form as the assertion. It exists for
// local runs against the in-memory backend and must not face the internet.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, assertion string) (backend.Identity, error) {
	p, err := principal.Parse(assertion)
	if err != nil {
		return backend.Identity{}, fmt.Errorf("%w: %v", services.ErrVerificationFailed, err)
	}
	return backend.Identity{Principal: p}, nil
}

// RemoteVerifier posts the assertion to an identity gateway, which answers
// {"principal": "...", "delegation": "..."} for a valid login and a non-2xx
// status otherwise.
type RemoteVerifier struct {
	URL    string
	Client *http.Client
}

func NewRemoteVerifier(url string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteVerifier{URL: strings.TrimRight(url, "/"), Client: &http.Client{Timeout: timeout}}
}

type verifyReply struct {
	Principal  string `json:"principal"`
	Delegation string `json:"delegation"`
}

const maxVerifyReply = 64 << 10

func (v *RemoteVerifier) Verify(ctx context.Context, assertion string) (backend.Identity, error) {
	body, _ := json.Marshal(map[string]string{"assertion": assertion})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.URL, bytes.NewReader(body))
	if err != nil {
		return backend.Identity{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := v.Client.Do(req)
	if err != nil {
		return backend.Identity{}, fmt.Errorf("identity gateway: %w", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxVerifyReply))
	if err != nil {
		return backend.Identity{}, fmt.Errorf("identity gateway: %w", err)
	}
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return backend.Identity{}, services.ErrVerificationFailed
	case res.StatusCode >= 300:
		return backend.Identity{}, fmt.Errorf("identity gateway: status %d", res.StatusCode)
	}
	var reply verifyReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return backend.Identity{}, fmt.Errorf("identity gateway: decode reply: %w", err)
	}
	p, err := principal.Parse(reply.Principal)
	if err != nil {
		return backend.Identity{}, fmt.Errorf("%w: gateway returned %v", services.ErrVerificationFailed, err)
	}
	return backend.Identity{Principal: p, Delegation: reply.Delegation}, nil
}

// New picks a verifier by kind ("dev" or "remote").
func New(kind, url string, timeout time.Duration) (services.IdentityVerifier, error) {
	switch kind {
	case "dev":
		return DevVerifier{}, nil
	case "remote":
		if url == "" {
			return nil, fmt.Errorf("remote verifier needs a URL")
		}
		return NewRemoteVerifier(url, timeout), nil
	}
	return nil, fmt.Errorf("unknown verifier %q", kind)
}
