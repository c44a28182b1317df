package main

import (
	"context"

	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/urfave/cli/v3"
)

// MessageSend delivers a direct message to both mailboxes.
func (r *Runner) MessageSend(ctx context.Context, cmd *cli.Command) error {
	sender, err := r.userByName(cmd.StringArg("from"))
	if err != nil {
		return err
	}
	recipient, err := r.userByName(cmd.StringArg("to"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	msg, err := repositories.NewMessageRepository(db).Send(sender.ID(), recipient.ID(), cmd.String("body"))
	if err != nil {
		return err
	}

	r.logger.Info("message sent", "id", msg.ID, "to", recipient.Username())
	r.writePlain("✓ Sent to %s\n", recipient.Handle())
	return nil
}

// MessageInbox prints a user's mailbox, oldest first.
func (r *Runner) MessageInbox(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	messages, err := repositories.NewMessageRepository(db).Mailbox(user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(messages, true)
	}

	r.writePlain("Mailbox for %s (%d messages):\n\n", user.Handle(), len(messages))
	for _, msg := range messages {
		r.writePlain("[%s] %s → %s\n", msg.CreatedAt.Format("2006-01-02 15:04"), msg.SenderHandle, msg.RecipientHandle)
		r.writePlain("  %s\n\n", msg.Body)
	}
	return nil
}
