package pi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"user":{"uid":"u1","username":"dana","wallet_address":"w1"},"access_token":"tok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.HTTP = srv.Client()

	res, err := c.Authenticate(context.Background(), []string{"username", "payments"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.User.UID != "u1" || res.AccessToken != "tok" {
		t.Errorf("got %+v", res)
	}
}

func TestAuthenticateRejectsEmptyProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.HTTP = srv.Client()
	if _, err := c.Authenticate(context.Background(), nil); err == nil {
		t.Error("empty profile must be an error")
	}
}

func TestApproveSurfacesServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.HTTP = srv.Client()
	if err := c.Approve(context.Background(), "p1"); err == nil {
		t.Error("non-200 approval must be an error")
	}
}
