package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

// MessageRepository manages direct message mailboxes. A send writes the
// same message to both participants' mailboxes in one transaction;
// mailboxes are append-only and never trimmed here.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new [MessageRepository] with the given database connection
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Send delivers a message from sender to recipient. Blocked pairs are
// refused before any write. Both mailbox rows commit together or not at
// all.
func (r *MessageRepository) Send(senderID, recipientID, body string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: cannot message yourself", shared.ErrSelfReference)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	blocked, err := blockedPair(tx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, shared.ErrBlockedPair
	}

	senderHandle, err := handleFor(tx, senderID)
	if err != nil {
		return nil, err
	}
	recipientHandle, err := handleFor(tx, recipientID)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		ID:              shared.GenerateID(),
		SenderHandle:    senderHandle,
		RecipientHandle: recipientHandle,
		Body:            body,
		CreatedAt:       time.Now(),
	}

	if err := message.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	for _, ownerID := range []string{senderID, recipientID} {
		_, err = tx.Exec(`
			INSERT INTO messages (id, owner_id, sender_handle, recipient_handle, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			message.ID, ownerID, message.SenderHandle, message.RecipientHandle,
			message.Body, message.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to append to mailbox: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	message.OwnerID = senderID
	return &message, nil
}

// Mailbox returns the user's messages in append order.
func (r *MessageRepository) Mailbox(userID string) ([]models.Message, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, sender_handle, recipient_handle, body, created_at
		FROM messages WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mailbox: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.SenderHandle, &m.RecipientHandle, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return messages, nil
}

// handleFor resolves a user's display handle inside a transaction.
func handleFor(e execer, userID string) (string, error) {
	var (
		username    string
		displayName sql.NullString
	)
	err := e.QueryRow("SELECT username, display_name FROM users WHERE id = ?", userID).
		Scan(&username, &displayName)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: user %s", shared.ErrNotFound, userID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user handle: %w", err)
	}

	if displayName.Valid && displayName.String != "" {
		return displayName.String, nil
	}
	return username, nil
}
