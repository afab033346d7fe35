package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/echoai/deepchat/backend/internal/store"
)

func TestMemoryStoreFindByIdentifierPrefersUsername(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash-a"); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	// Second account whose username equals the first account's email.
	if _, err := s.CreateUser(ctx, "alice@example.com", "other@example.com", "hash-b"); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}

	found, err := s.FindByIdentifier(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByIdentifier err: %v", err)
	}
	if found == nil || found.Username != "alice@example.com" {
		t.Fatalf("expected username match to win, got %+v", found)
	}
}

func TestMemoryStoreCreateUserConflict(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "bob", "bob@example.com", "hash"); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}

	if _, err := s.CreateUser(ctx, "bob", "new@example.com", "hash"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
	if _, err := s.CreateUser(ctx, "bobby", "bob@example.com", "hash"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestMemoryStoreListChatsNewestFirst(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	first, _ := s.CreateChat(ctx, "u1", "first")
	second, _ := s.CreateChat(ctx, "u1", "second")
	if _, err := s.CreateChat(ctx, "u2", "other user"); err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}

	chats, err := s.ListChats(ctx, "u1")
	if err != nil {
		t.Fatalf("ListChats err: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}
	if chats[0].ID != second.ID || chats[1].ID != first.ID {
		t.Fatal("expected newest-first ordering")
	}
}

func TestMemoryStorePagination(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := s.CreateChat(ctx, "u1", "chat"); err != nil {
			t.Fatalf("CreateChat err: %v", err)
		}
	}

	page, err := s.ListChatsPage(ctx, "u1", 3, 10)
	if err != nil {
		t.Fatalf("ListChatsPage err: %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("expected 5 chats on last page, got %d", len(page))
	}

	empty, err := s.ListChatsPage(ctx, "u1", 4, 10)
	if err != nil {
		t.Fatalf("ListChatsPage err: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(empty))
	}

	count, err := s.CountChats(ctx, "u1")
	if err != nil {
		t.Fatalf("CountChats err: %v", err)
	}
	if count != 25 {
		t.Fatalf("expected count 25, got %d", count)
	}
}

func TestMemoryStoreDeleteCascadesMessages(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	created, err := s.CreateChat(ctx, "u1", "doomed")
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}
	if _, err := s.AppendMessage(ctx, created.ID, "user", "hello", 1000); err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}

	if err := s.DeleteChat(ctx, created.ID); err != nil {
		t.Fatalf("DeleteChat err: %v", err)
	}

	exists, _ := s.ChatExists(ctx, created.ID)
	if exists {
		t.Fatal("chat should be gone after delete")
	}
	messages, _ := s.ListMessages(ctx, created.ID)
	if len(messages) != 0 {
		t.Fatalf("expected cascaded message delete, got %d messages", len(messages))
	}
}

func TestMemoryStoreCreateChatWithIDConflict(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := s.CreateChatWithID(ctx, "u1", "fixed-id", "a"); err != nil {
		t.Fatalf("CreateChatWithID err: %v", err)
	}
	if _, err := s.CreateChatWithID(ctx, "u1", "fixed-id", "b"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate chat id, got %v", err)
	}
}
