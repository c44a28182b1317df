package repositories

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

func TestMessageRepository(t *testing.T) {
	t.Run("SendWritesBothMailboxes", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMessageRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")

		msg, err := repo.Send(ella.ID(), miles.ID(), "listen to this tonight")
		if err != nil {
			t.Fatalf("failed to send message: %v", err)
		}

		for _, owner := range []*models.User{ella, miles} {
			mailbox, err := repo.Mailbox(owner.ID())
			if err != nil {
				t.Fatalf("failed to read mailbox: %v", err)
			}
			if len(mailbox) != 1 {
				t.Fatalf("expected 1 message for %s, got %d", owner.Username(), len(mailbox))
			}
			if mailbox[0].ID != msg.ID {
				t.Errorf("both copies must share the message id")
			}
			if mailbox[0].Body != "listen to this tonight" {
				t.Errorf("unexpected body %q", mailbox[0].Body)
			}
		}
	})

	t.Run("MailboxAppendOrder", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMessageRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")

		for _, body := range []string{"first", "second", "third"} {
			if _, err := repo.Send(ella.ID(), miles.ID(), body); err != nil {
				t.Fatalf("failed to send: %v", err)
			}
		}

		mailbox, err := repo.Mailbox(miles.ID())
		if err != nil {
			t.Fatalf("failed to read mailbox: %v", err)
		}
		if len(mailbox) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(mailbox))
		}
		for i, want := range []string{"first", "second", "third"} {
			if mailbox[i].Body != want {
				t.Errorf("position %d: expected %q, got %q", i, want, mailbox[i].Body)
			}
		}
	})

	t.Run("BlockedPairRefused", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMessageRepository(db)
		graph := NewGraphRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")

		if err := graph.Block(miles.ID(), ella.ID()); err != nil {
			t.Fatalf("failed to block: %v", err)
		}

		// Refused in both directions, and nothing is written.
		if _, err := repo.Send(ella.ID(), miles.ID(), "hello?"); !errors.Is(err, shared.ErrBlockedPair) {
			t.Errorf("expected ErrBlockedPair, got %v", err)
		}
		if _, err := repo.Send(miles.ID(), ella.ID(), "hello?"); !errors.Is(err, shared.ErrBlockedPair) {
			t.Errorf("expected ErrBlockedPair, got %v", err)
		}

		mailbox, err := repo.Mailbox(miles.ID())
		if err != nil {
			t.Fatalf("failed to read mailbox: %v", err)
		}
		if len(mailbox) != 0 {
			t.Errorf("refused send must not write, got %d messages", len(mailbox))
		}
	})

	t.Run("SelfMessage", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMessageRepository(db)
		ella := createUser(t, db, "ella")

		if _, err := repo.Send(ella.ID(), ella.ID(), "note to self"); !errors.Is(err, shared.ErrSelfReference) {
			t.Errorf("expected ErrSelfReference, got %v", err)
		}
	})

	t.Run("BodyTooLong", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMessageRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")

		body := strings.Repeat("a", models.MaxMessageLength+1)
		if _, err := repo.Send(ella.ID(), miles.ID(), body); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("HandleSnapshotUsesDisplayName", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMessageRepository(db)
		users := NewUserRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")

		if err := users.ApplyProfileUpdate(ella.ID(), models.DisplayNameUpdate{DisplayName: "Ella F"}); err != nil {
			t.Fatalf("failed to set display name: %v", err)
		}

		msg, err := repo.Send(ella.ID(), miles.ID(), "hi")
		if err != nil {
			t.Fatalf("failed to send: %v", err)
		}
		if msg.SenderHandle != "Ella F" {
			t.Errorf("expected sender handle Ella F, got %s", msg.SenderHandle)
		}
		if msg.RecipientHandle != "miles" {
			t.Errorf("expected recipient handle miles, got %s", msg.RecipientHandle)
		}
	})
}
