package mattermost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jhornung97/ETPApprover/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *serverState) {
	t.Helper()

	state := &serverState{
		users: map[string]string{
			"jhornung": "uid-admin",
			"amueller": "uid-author",
			"bot":      "uid-bot",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "uid-bot", "username": "bot"})
	})
	mux.HandleFunc("GET /api/v4/users/username/{name}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := state.users[r.PathValue("name")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": id, "username": r.PathValue("name")})
	})
	mux.HandleFunc("POST /api/v4/channels/direct", func(w http.ResponseWriter, r *http.Request) {
		var members []string
		json.NewDecoder(r.Body).Decode(&members)
		state.directMembers = members
		json.NewEncoder(w).Encode(map[string]string{"id": "chan-direct"})
	})
	mux.HandleFunc("POST /api/v4/channels/group", func(w http.ResponseWriter, r *http.Request) {
		var members []string
		json.NewDecoder(r.Body).Decode(&members)
		state.groupMembers = members
		json.NewEncoder(w).Encode(map[string]string{"id": "chan-group"})
	})
	mux.HandleFunc("POST /api/v4/posts", func(w http.ResponseWriter, r *http.Request) {
		var post map[string]string
		json.NewDecoder(r.Body).Decode(&post)
		state.posts = append(state.posts, post)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "post-1"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

type serverState struct {
	users         map[string]string
	directMembers []string
	groupMembers  []string
	posts         []map[string]string
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.ChatConfig{
		APIURL: srv.URL + "/api",
		Token:  "test-token",
	}, nil)
}

func TestHandleExists(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	client := newTestClient(srv)

	exists, err := client.HandleExists(context.Background(), "jhornung")
	if err != nil {
		t.Fatalf("HandleExists: %v", err)
	}
	if !exists {
		t.Error("expected jhornung to exist")
	}

	exists, err = client.HandleExists(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("HandleExists: %v", err)
	}
	if exists {
		t.Error("expected nobody to be absent")
	}
}

func TestDeliverDirect(t *testing.T) {
	t.Parallel()

	srv, state := newTestServer(t)
	client := newTestClient(srv)

	if err := client.Deliver(context.Background(), []string{"jhornung"}, "hello"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if len(state.directMembers) != 2 {
		t.Fatalf("direct channel members = %v, want bot + recipient", state.directMembers)
	}
	if state.directMembers[0] != "uid-bot" || state.directMembers[1] != "uid-admin" {
		t.Errorf("direct channel members = %v", state.directMembers)
	}
	if len(state.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(state.posts))
	}
	if state.posts[0]["channel_id"] != "chan-direct" {
		t.Errorf("post channel = %q, want chan-direct", state.posts[0]["channel_id"])
	}
	if state.posts[0]["message"] != "hello" {
		t.Errorf("post message = %q", state.posts[0]["message"])
	}
}

func TestDeliverGroup(t *testing.T) {
	t.Parallel()

	srv, state := newTestServer(t)
	client := newTestClient(srv)

	err := client.Deliver(context.Background(), []string{"jhornung", "amueller"}, "group note")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	want := []string{"uid-bot", "uid-admin", "uid-author"}
	if len(state.groupMembers) != len(want) {
		t.Fatalf("group members = %v, want %v", state.groupMembers, want)
	}
	for i, id := range want {
		if state.groupMembers[i] != id {
			t.Errorf("group member[%d] = %q, want %q", i, state.groupMembers[i], id)
		}
	}
	if state.posts[0]["channel_id"] != "chan-group" {
		t.Errorf("post channel = %q, want chan-group", state.posts[0]["channel_id"])
	}
}

func TestDeliverUnknownRecipient(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	client := newTestClient(srv)

	if err := client.Deliver(context.Background(), []string{"ghost"}, "hi"); err == nil {
		t.Fatal("expected error for unknown recipient")
	}
}

func TestConnectBadToken(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	client := NewClient(config.ChatConfig{APIURL: srv.URL + "/api", Token: "wrong"}, nil)

	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("expected error for bad token")
	}
}
