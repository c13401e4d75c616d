package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hsawaji/flema-backend/internal/model"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Listing{},
		&model.ListingImage{},
		&model.Conversation{},
		&model.Message{},
		&model.Notification{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestFindOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))

	first, err := repo.FindOrCreate(ctx, 42, "seller", "buyer")
	if err != nil {
		t.Fatalf("first FindOrCreate: %v", err)
	}
	second, err := repo.FindOrCreate(ctx, 42, "seller", "buyer")
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}
}

func TestFindOrCreateMatchesSwappedRoles(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))

	first, err := repo.FindOrCreate(ctx, 42, "seller", "buyer")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	// Legacy rows may carry the pair with roles assigned the other way
	// around; the lookup must still resolve to the same conversation.
	swapped, err := repo.FindOrCreate(ctx, 42, "buyer", "seller")
	if err != nil {
		t.Fatalf("swapped FindOrCreate: %v", err)
	}
	if first.ID != swapped.ID {
		t.Fatalf("swapped roles created a duplicate: %d vs %d", first.ID, swapped.ID)
	}
}

func TestFindOrCreateSeparatesListings(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))

	a, _ := repo.FindOrCreate(ctx, 1, "seller", "buyer")
	b, err := repo.FindOrCreate(ctx, 2, "seller", "buyer")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("conversations for different listings must not collapse")
	}
}

func TestListMessagesAscending(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))
	cv, _ := repo.FindOrCreate(ctx, 1, "seller", "buyer")

	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		if err := repo.CreateMessage(ctx, &model.Message{ConversationID: cv.ID, SenderUID: "buyer", Body: b}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	msgs, err := repo.ListMessages(ctx, cv.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != len(bodies) {
		t.Fatalf("len=%d want=%d", len(msgs), len(bodies))
	}
	for i, want := range bodies {
		if msgs[i].Body != want {
			t.Errorf("msgs[%d]=%q want=%q", i, msgs[i].Body, want)
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Errorf("messages not in ascending creation order at %d", i)
		}
	}
}

func TestLatestMessage(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))
	cv, _ := repo.FindOrCreate(ctx, 1, "seller", "buyer")

	latest, err := repo.LatestMessage(ctx, cv.ID)
	if err != nil {
		t.Fatalf("LatestMessage on empty thread: %v", err)
	}
	if latest != nil {
		t.Fatalf("empty thread should yield nil, got %+v", latest)
	}

	_ = repo.CreateMessage(ctx, &model.Message{ConversationID: cv.ID, SenderUID: "buyer", Body: "old"})
	_ = repo.CreateMessage(ctx, &model.Message{ConversationID: cv.ID, SenderUID: "seller", Body: "new"})

	latest, err = repo.LatestMessage(ctx, cv.ID)
	if err != nil {
		t.Fatalf("LatestMessage: %v", err)
	}
	if latest == nil || latest.Body != "new" {
		t.Fatalf("latest=%+v want body=new", latest)
	}
}

func TestMarkReadSkipsOwnMessagesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))
	cv, _ := repo.FindOrCreate(ctx, 1, "seller", "buyer")

	_ = repo.CreateMessage(ctx, &model.Message{ConversationID: cv.ID, SenderUID: "buyer", Body: "from buyer"})
	_ = repo.CreateMessage(ctx, &model.Message{ConversationID: cv.ID, SenderUID: "seller", Body: "from seller"})
	_ = repo.CreateMessage(ctx, &model.Message{ConversationID: cv.ID, SenderUID: "seller", Body: "also from seller"})

	for i := 0; i < 2; i++ { // second pass must be a no-op
		if err := repo.MarkRead(ctx, cv.ID, "buyer"); err != nil {
			t.Fatalf("MarkRead pass %d: %v", i, err)
		}
		msgs, _ := repo.ListMessages(ctx, cv.ID)
		for _, m := range msgs {
			want := m.SenderUID != "buyer"
			if m.Read != want {
				t.Errorf("pass %d: message %q read=%v want=%v", i, m.Body, m.Read, want)
			}
		}
	}

	unread, err := repo.CountUnread(ctx, cv.ID, "buyer")
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("unread=%d want=0", unread)
	}
	// The buyer's own message stays unread from the seller's side.
	unread, _ = repo.CountUnread(ctx, cv.ID, "seller")
	if unread != 1 {
		t.Fatalf("seller unread=%d want=1", unread)
	}
}

func TestTouchUpdatedAtOrdersInbox(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))

	older, _ := repo.FindOrCreate(ctx, 1, "seller", "buyer")
	newer, _ := repo.FindOrCreate(ctx, 2, "seller", "buyer")

	if err := repo.TouchUpdatedAt(ctx, older.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("TouchUpdatedAt: %v", err)
	}

	list, err := repo.FindByUser(ctx, "buyer")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len=%d want=2", len(list))
	}
	if list[0].ID != older.ID || list[1].ID != newer.ID {
		t.Fatalf("order=%d,%d want=%d,%d", list[0].ID, list[1].ID, older.ID, newer.ID)
	}
}

func TestFindByUserCoversBothRoles(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(testDB(t))

	_, _ = repo.FindOrCreate(ctx, 1, "alice", "bob")
	_, _ = repo.FindOrCreate(ctx, 2, "carol", "alice")

	list, err := repo.FindByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len=%d want=2", len(list))
	}
}

func TestNilDBGuard(t *testing.T) {
	repo := NewConversationRepository(nil)
	if _, err := repo.FindByUser(context.Background(), "u"); err != ErrDBNotReady {
		t.Fatalf("err=%v want=%v", err, ErrDBNotReady)
	}
}
