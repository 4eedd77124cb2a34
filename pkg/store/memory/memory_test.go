package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
)

func TestCreateAndListConversations(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.CreateConversation(ctx, "user-1", "sim-1", "First")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	second, err := s.CreateConversation(ctx, "user-1", "sim-1", "Second")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if _, err := s.CreateConversation(ctx, "user-2", "sim-1", "Other user"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	// Touch the first conversation so it sorts ahead of the second.
	time.Sleep(2 * time.Millisecond)
	if err := s.AppendMessage(ctx, first.ID, chat.RoleUser, "bump"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	convs, err := s.ListConversations(ctx, "user-1", "sim-1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("conversations = %d, want 2", len(convs))
	}
	if convs[0].ID != first.ID || convs[1].ID != second.ID {
		t.Errorf("order = [%s %s], want most recently updated first", convs[0].Title, convs[1].Title)
	}
}

func TestAppendAndListMessages(t *testing.T) {
	s := New()
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "user-1", "sim-1", "Chat")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := s.AppendMessage(ctx, conv.ID, chat.RoleUser, "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := s.AppendMessage(ctx, conv.ID, chat.RoleAssistant, "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Content != "hi" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != chat.RoleAssistant || msgs[1].Content != "hello" {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestDeleteConversation(t *testing.T) {
	s := New()
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "user-1", "sim-1", "Chat")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := s.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := s.ListMessages(ctx, conv.ID); err == nil {
		t.Error("expected error listing messages of a deleted conversation")
	}
	if err := s.DeleteConversation(ctx, conv.ID); err == nil {
		t.Error("expected error deleting a missing conversation")
	}
}

func TestUnknownConversation(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "missing", chat.RoleUser, "hi"); err == nil {
		t.Error("expected error appending to a missing conversation")
	}
	if _, err := s.ListMessages(ctx, "missing"); err == nil {
		t.Error("expected error listing a missing conversation")
	}
}
