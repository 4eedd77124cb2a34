package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/config"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := New(config.StoreConfig{APIURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRequiresAPIURL(t *testing.T) {
	if _, err := New(config.StoreConfig{}); err == nil {
		t.Error("expected error for missing api_url")
	}
}

func TestCreateConversation(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/conversations" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["user_id"] != "user-1" || body["sim_id"] != "sim-1" {
			t.Errorf("body = %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":      "conv-1",
			"user_id": body["user_id"],
			"sim_id":  body["sim_id"],
			"title":   body["title"],
		})
	})

	conv, err := s.CreateConversation(context.Background(), "user-1", "sim-1", "Chat")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if conv.ID != "conv-1" || conv.Title != "Chat" {
		t.Errorf("conversation = %+v", conv)
	}
}

func TestListMessages(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/conv-1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]string{
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
		})
	})

	msgs, err := s.ListMessages(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[1].Role != chat.RoleAssistant || msgs[1].Content != "hello" {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestAppendMessageSurfacesAPIError(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"conversation not found"}`, http.StatusNotFound)
	})

	err := s.AppendMessage(context.Background(), "missing", chat.RoleUser, "hi")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDeleteConversation(t *testing.T) {
	deleted := false
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/conversations/conv-9" {
			deleted = true
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := s.DeleteConversation(context.Background(), "conv-9"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if !deleted {
		t.Error("delete request never reached the server")
	}
}
