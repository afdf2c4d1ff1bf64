package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jhornung97/ETPApprover/internal/config"
	"github.com/jhornung97/ETPApprover/internal/domain"
)

const loginPage = `<html><body>
<form method="post">
<input id="csrf_token" name="csrf_token" type="hidden" value="token-123"/>
<input name="email"/><input name="password"/>
</form></body></html>`

const loggedInPage = `<html><body>
<nav><a href="/logout">Log out</a></nav>
</body></html>`

const rejectedPage = `<html><body>
<form method="post">
<input id="csrf_token" name="csrf_token" type="hidden" value="token-456"/>
<p>Invalid credentials</p>
</form></body></html>`

func newRepositoryServer(t *testing.T, acceptLogin bool, listing any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("POST /login/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse login form: %v", err)
		}
		if r.PostForm.Get("csrf_token") != "token-123" {
			t.Errorf("csrf_token = %q, want token-123", r.PostForm.Get("csrf_token"))
		}
		if !acceptLogin || r.PostForm.Get("email") != "bot@example.org" {
			fmt.Fprint(w, rejectedPage)
			return
		}
		fmt.Fprint(w, loggedInPage)
	})
	mux.HandleFunc("GET /api/deposit/depositions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.zenodo.v1+json" {
			t.Errorf("Accept = %q", got)
		}
		json.NewEncoder(w).Encode(listing)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.RepositoryConfig{
		BaseURL:  srv.URL,
		Email:    "bot@example.org",
		Password: "secret",
	}, nil, nil)
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	srv := newRepositoryServer(t, true, nil)
	client := newTestClient(srv)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()

	srv := newRepositoryServer(t, false, nil)
	client := newTestClient(srv)

	err := client.Login(context.Background())
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Errorf("error = %v, want ErrAuthentication", err)
	}
}

func TestLoginMissingCSRFToken(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>no form here</body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	err := newTestClient(srv).Login(context.Background())
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Errorf("error = %v, want ErrAuthentication", err)
	}
}

func TestPendingSubmissionsFiltersByStatus(t *testing.T) {
	t.Parallel()

	listing := []any{
		map[string]any{"id": 1, "approval_status": "pending"},
		map[string]any{"id": 2, "approval_status": "approved"},
		map[string]any{"id": 3, "approval_status": "pending"},
		map[string]any{"id": 4},
	}
	srv := newRepositoryServer(t, true, listing)
	client := newTestClient(srv)

	records, err := client.PendingSubmissions(context.Background())
	if err != nil {
		t.Fatalf("PendingSubmissions: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 pending", len(records))
	}
	for _, rec := range records {
		if rec["approval_status"] != "pending" {
			t.Errorf("non-pending record leaked: %v", rec)
		}
	}
}

func TestPendingSubmissionsHitsEnvelope(t *testing.T) {
	t.Parallel()

	listing := map[string]any{
		"hits": map[string]any{
			"hits": []any{
				map[string]any{"id": 10, "approval_status": "pending"},
				map[string]any{"id": 11, "approval_status": "draft"},
			},
		},
	}
	srv := newRepositoryServer(t, true, listing)
	client := newTestClient(srv)

	records, err := client.PendingSubmissions(context.Background())
	if err != nil {
		t.Fatalf("PendingSubmissions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 from envelope", len(records))
	}
}

func TestPendingSubmissionsLogsInFirst(t *testing.T) {
	t.Parallel()

	srv := newRepositoryServer(t, true, []any{})
	client := newTestClient(srv)

	// No explicit Login call: the listing must authenticate on demand.
	records, err := client.PendingSubmissions(context.Background())
	if err != nil {
		t.Fatalf("PendingSubmissions: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}
