package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/echoai/deepchat/backend/internal/store"
)

// fakeStore stands in for the remote collection store.
func fakeStore(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *store.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := store.NewClient(srv.URL, "test-key", 5*time.Second, zap.NewNop())
	return srv, client
}

func TestClientSendsAuthHeaders(t *testing.T) {
	_, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if r.Method == http.MethodPost {
			if r.Header.Get("Prefer") != "return=representation" {
				t.Errorf("missing Prefer header on write")
			}
			var record map[string]any
			json.NewDecoder(r.Body).Decode(&record)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]map[string]any{record})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	})

	if _, err := client.ChatExists(context.Background(), "some-id"); err != nil {
		t.Fatalf("ChatExists err: %v", err)
	}
	if _, err := client.AppendMessage(context.Background(), "chat-1", "user", "hello", 1000); err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}
}

func TestClientChatExists(t *testing.T) {
	_, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "eq.chat-1" {
			t.Errorf("unexpected id filter: %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": "chat-1"}})
	})

	exists, err := client.ChatExists(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("ChatExists err: %v", err)
	}
	if !exists {
		t.Fatal("expected chat to exist")
	}
}

func TestClientCreateChatReturnsRepresentation(t *testing.T) {
	_, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/chats" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var record map[string]any
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if record["id"] == "" {
			t.Error("expected client-generated id")
		}
		record["created_at"] = "2024-01-01T00:00:00Z"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{record})
	})

	created, err := client.CreateChat(context.Background(), "user-1", "新对话")
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}
	if created.UserID != "user-1" || created.Title != "新对话" {
		t.Fatalf("unexpected record: %+v", created)
	}
	if created.Color != "bg-blue-100" || created.IconColor != "text-blue-500" {
		t.Fatalf("expected default colors, got %+v", created)
	}
}

func TestClientRemoteRejection(t *testing.T) {
	_, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListChats(context.Background(), "user-1")
	var remote *store.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", remote.Status)
	}
}

func TestClientConflictMapsToErrConflict(t *testing.T) {
	_, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.CreateUser(context.Background(), "alice", "alice@example.com", "hash")
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClientTransportError(t *testing.T) {
	srv, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.ListMessages(context.Background(), "chat-1")
	var transport *store.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestClientFindByIdentifierFallsBackToEmail(t *testing.T) {
	calls := 0
	_, client := fakeStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("username") != "" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		if got := r.URL.Query().Get("email"); got != "eq.alice@example.com" {
			t.Errorf("unexpected email filter: %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{
			"id":       "user-1",
			"username": "alice",
			"email":    "alice@example.com",
		}})
	})

	found, err := client.FindByIdentifier(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByIdentifier err: %v", err)
	}
	if found == nil || found.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", found)
	}
	if calls != 2 {
		t.Fatalf("expected username query then email query, got %d calls", calls)
	}
}
