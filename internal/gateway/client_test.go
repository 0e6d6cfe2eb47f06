package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type testRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestClientCreate(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.Method + " " + r.URL.Path
		var rec testRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rec)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("secret"), time.Second)
	var out testRecord
	err := c.Create(context.Background(), "meals", testRecord{ID: "m1", Name: "lunch"}, &out)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "POST /meals" {
		t.Errorf("request = %q, want POST /meals", gotPath)
	}
	if out.ID != "m1" {
		t.Errorf("decoded id = %q", out.ID)
	}
}

func TestClientErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/meals/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/meals/bad":
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "name is required"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken(""), time.Second)
	ctx := context.Background()

	var out testRecord
	if err := c.Get(ctx, "meals", "missing", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 get: got %v, want ErrNotFound", err)
	}

	err := c.Update(ctx, "meals", "bad", testRecord{ID: "bad"}, &out)
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("422 update: got %v, want RejectedError", err)
	}
	if rejected.Status != http.StatusUnprocessableEntity || rejected.Message != "name is required" {
		t.Errorf("rejection = %+v", rejected)
	}
}

func TestClientDeleteTreats404AsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken(""), time.Second)
	if err := c.Delete(context.Background(), "meals", "gone"); err != nil {
		t.Errorf("delete of absent record: %v, want nil", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens here anymore

	c := NewClient(srv.URL, StaticToken(""), time.Second)
	var out testRecord
	err := c.Get(context.Background(), "meals", "m1", &out)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("connection refused: got %v, want ErrUnreachable", err)
	}
}

func TestClientTimeoutIsUnreachable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	c := NewClient(srv.URL, StaticToken(""), 50*time.Millisecond)
	var out testRecord
	err := c.Get(context.Background(), "meals", "m1", &out)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("timeout: got %v, want ErrUnreachable", err)
	}
}
