//go:build integration

package main_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/soaringjerry/supportportal/internal/principal"
)

// Runs against a portal started with the memory backend and the dev verifier:
//
//	PORTAL_ADDR=:18080 go run ./cmd/server serve
func baseURL() string {
	if v := os.Getenv("PORTAL_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestMemberJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()
	me := principal.SelfAuthenticating([]byte(fmt.Sprintf("integration-%d", time.Now().UnixNano())))

	var loginResp struct {
		Token     string `json:"token"`
		Principal string `json:"principal"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{"assertion": me.String()}, &loginResp)
	token := loginResp.Token
	if token == "" || loginResp.Principal != me.String() {
		t.Fatalf("unexpected login response: %+v", loginResp)
	}

	var status struct {
		SetupRequired bool `json:"setup_required"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/profile", token, nil, &status)
	if !status.SetupRequired {
		t.Fatalf("new member should need profile setup")
	}
	doJSON(t, client, http.MethodPost, base+"/api/profile", token, map[string]any{
		"name":                 "Integration Member",
		"username":             fmt.Sprintf("member%d", time.Now().UnixNano()%100000),
		"email":                "member@example.com",
		"age":                  "29",
		"agreed_to_guidelines": true,
		"language":             "english",
	}, nil)

	content := fmt.Sprintf("integration post %d", time.Now().UnixNano())
	doJSON(t, client, http.MethodPost, base+"/api/community/posts", token, map[string]any{"content": content}, nil)
	var feed struct {
		Posts []struct {
			Content string `json:"content"`
			CanEdit bool   `json:"can_edit"`
		} `json:"posts"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/community/posts", token, nil, &feed)
	found := false
	for _, p := range feed.Posts {
		if p.Content == content {
			found = p.CanEdit
		}
	}
	if !found {
		t.Fatalf("own post missing from feed or not editable: %+v", feed.Posts)
	}

	doJSON(t, client, http.MethodPost, base+"/api/mood", token, map[string]string{"mood": "happy"}, nil)
	req, err := http.NewRequest(http.MethodGet, base+"/api/mood/export", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("export status %d body %s", resp.StatusCode, string(body))
	}
	csvData, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	if !strings.Contains(string(csvData), "happy") {
		t.Fatalf("mood export missing entry; csv=%s", csvData)
	}

	doJSON(t, client, http.MethodPost, base+"/api/auth/logout", token, nil, nil)
	var session struct {
		Authenticated bool `json:"authenticated"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/session", token, nil, &session)
	if session.Authenticated {
		t.Fatalf("token still accepted after logout")
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
