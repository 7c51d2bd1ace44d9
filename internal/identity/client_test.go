package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_GetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/user_abc" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("unexpected authorization header %q", got)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":              "user_abc",
			"email_addresses": []map[string]string{{"email_address": "a@x.com"}},
			"first_name":      "Amina",
			"last_name":       "Khan",
			"image_url":       "https://img.example.com/a.png",
			"public_metadata": map[string]string{"role": "community_user"},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ident, err := client.GetUser(context.Background(), "user_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ident.SubjectID != "user_abc" {
		t.Errorf("expected subject 'user_abc', got %q", ident.SubjectID)
	}
	if ident.FirstName != "Amina" {
		t.Errorf("expected first name 'Amina', got %q", ident.FirstName)
	}
	if ident.PublicRole != "community_user" {
		t.Errorf("expected public role 'community_user', got %q", ident.PublicRole)
	}
}

func TestClient_GetUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.GetUser(context.Background(), "user_missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestClient_WriteRoleMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/v1/users/user_abc/metadata" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var body map[string]map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["public_metadata"]["role"] != "mosque_admin" {
			t.Errorf("expected role 'mosque_admin', got %q", body["public_metadata"]["role"])
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.WriteRoleMetadata(context.Background(), "user_abc", "mosque_admin"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_WriteRoleMetadata_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.WriteRoleMetadata(context.Background(), "user_abc", "mosque_admin"); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient("", "sk_test"); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewClient("https://api.example.com", ""); err == nil {
		t.Error("expected error for missing secret key")
	}
}
