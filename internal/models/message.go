package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/chorus/internal/shared"
)

// MaxMessageLength bounds direct message bodies.
const MaxMessageLength = 2000

// Message is a direct message between two users. The same message is
// appended to both participants' mailboxes; OwnerID identifies whose
// mailbox this copy belongs to. Mailboxes are append-only.
type Message struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"-"`
	SenderHandle    string    `json:"sender"`
	RecipientHandle string    `json:"recipient"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks presence and the body length cap.
func (m Message) Validate() error {
	if len(m.Body) == 0 {
		return fmt.Errorf("%w: message body is empty", shared.ErrValidation)
	}
	if len(m.Body) > MaxMessageLength {
		return fmt.Errorf("%w: message body exceeds %d characters", shared.ErrValidation, MaxMessageLength)
	}

	params := struct {
		Sender    string `validate:"required"`
		Recipient string `validate:"required"`
	}{
		Sender:    m.SenderHandle,
		Recipient: m.RecipientHandle,
	}

	return checkStruct(params)
}
