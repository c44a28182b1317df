package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/chorus/internal/shared"
)

// Decision is the resolution of a pending friend request.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
	DecisionNone    Decision = "none"
)

// GraphRepository manages the directed follow edges, pending friend
// requests, and the symmetric-effect block relation between users.
//
// All compound mutations (block-then-unfollow, accept-request) run inside
// a single transaction so a failure leaves no partial graph change.
type GraphRepository struct {
	db *sql.DB
}

// NewGraphRepository creates a new [GraphRepository] with the given database connection
func NewGraphRepository(db *sql.DB) *GraphRepository {
	return &GraphRepository{db: db}
}

// Follow idempotently adds a one-way follow edge from actor to target.
// Fails with [shared.ErrBlockedPair] when either party blocks the other,
// and with [shared.ErrSelfReference] for actor == target.
func (r *GraphRepository) Follow(actorID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", shared.ErrSelfReference)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.requireUsers(tx, actorID, targetID); err != nil {
		return err
	}

	blocked, err := blockedPair(tx, actorID, targetID)
	if err != nil {
		return err
	}
	if blocked {
		return shared.ErrBlockedPair
	}

	_, err = tx.Exec(
		"INSERT OR IGNORE INTO follows (user_id, target_id, created_at) VALUES (?, ?, ?)",
		actorID, targetID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert follow edge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit follow: %w", err)
	}

	return nil
}

// Unfollow removes the follow edge if present. An absent edge is a no-op.
func (r *GraphRepository) Unfollow(actorID, targetID string) error {
	_, err := r.db.Exec(
		"DELETE FROM follows WHERE user_id = ? AND target_id = ?",
		actorID, targetID)
	if err != nil {
		return fmt.Errorf("failed to remove follow edge: %w", err)
	}
	return nil
}

// IsFollowing reports whether actor follows target.
func (r *GraphRepository) IsFollowing(actorID, targetID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = ? AND target_id = ?)",
		actorID, targetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query follow edge: %w", err)
	}
	return exists, nil
}

// Follows returns the identifiers this user follows.
func (r *GraphRepository) Follows(userID string) ([]string, error) {
	return r.idList(
		"SELECT target_id FROM follows WHERE user_id = ? ORDER BY created_at ASC", userID)
}

// Followers returns the identifiers following this user.
func (r *GraphRepository) Followers(userID string) ([]string, error) {
	return r.idList(
		"SELECT user_id FROM follows WHERE target_id = ? ORDER BY created_at ASC", userID)
}

// PendingRequests returns the identifiers who asked this user to follow
// them back, oldest first.
func (r *GraphRepository) PendingRequests(userID string) ([]string, error) {
	return r.idList(
		"SELECT requester_id FROM friend_requests WHERE target_id = ? ORDER BY created_at ASC", userID)
}

// RequestFriendship adds the requester to the target's pending requests.
// Duplicate requests are no-ops; blocked pairs are refused.
func (r *GraphRepository) RequestFriendship(requesterID, targetID string) error {
	if requesterID == targetID {
		return fmt.Errorf("%w: cannot friend yourself", shared.ErrSelfReference)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.requireUsers(tx, requesterID, targetID); err != nil {
		return err
	}

	blocked, err := blockedPair(tx, requesterID, targetID)
	if err != nil {
		return err
	}
	if blocked {
		return shared.ErrBlockedPair
	}

	_, err = tx.Exec(
		"INSERT OR IGNORE INTO friend_requests (target_id, requester_id, created_at) VALUES (?, ?, ?)",
		targetID, requesterID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert friend request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit friend request: %w", err)
	}

	return nil
}

// ResolveFriendRequest settles a pending request. Accepting creates
// mutual follow edges and clears the pending entry; declining clears the
// entry only; none leaves everything untouched. Any other decision fails
// with [shared.ErrInvalidDecision].
func (r *GraphRepository) ResolveFriendRequest(targetID, requesterID string, decision Decision) error {
	switch decision {
	case DecisionAccept, DecisionDecline, DecisionNone:
	default:
		return fmt.Errorf("%w: %q", shared.ErrInvalidDecision, decision)
	}

	if decision == DecisionNone {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"DELETE FROM friend_requests WHERE target_id = ? AND requester_id = ?",
		targetID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to clear friend request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: no pending request from %s", shared.ErrNotFound, requesterID)
	}

	if decision == DecisionAccept {
		blocked, err := blockedPair(tx, targetID, requesterID)
		if err != nil {
			return err
		}
		if blocked {
			return shared.ErrBlockedPair
		}

		now := time.Now()
		for _, edge := range [][2]string{{targetID, requesterID}, {requesterID, targetID}} {
			_, err = tx.Exec(
				"INSERT OR IGNORE INTO follows (user_id, target_id, created_at) VALUES (?, ?, ?)",
				edge[0], edge[1], now)
			if err != nil {
				return fmt.Errorf("failed to insert mutual follow edge: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit request resolution: %w", err)
	}

	return nil
}

// Block adds the other user to the actor's block list, then removes any
// follow edges and pending requests between the two in both directions.
// Missing edges are not an error; the whole operation is one transaction.
func (r *GraphRepository) Block(actorID, otherID string) error {
	if actorID == otherID {
		return fmt.Errorf("%w: cannot block yourself", shared.ErrSelfReference)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.requireUsers(tx, actorID, otherID); err != nil {
		return err
	}

	_, err = tx.Exec(
		"INSERT OR IGNORE INTO blocks (user_id, blocked_id, created_at) VALUES (?, ?, ?)",
		actorID, otherID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert block: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM follows
		 WHERE (user_id = ? AND target_id = ?) OR (user_id = ? AND target_id = ?)`,
		actorID, otherID, otherID, actorID)
	if err != nil {
		return fmt.Errorf("failed to remove follow edges: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM friend_requests
		 WHERE (target_id = ? AND requester_id = ?) OR (target_id = ? AND requester_id = ?)`,
		actorID, otherID, otherID, actorID)
	if err != nil {
		return fmt.Errorf("failed to remove pending requests: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit block: %w", err)
	}

	return nil
}

// Unblock removes the other user from the actor's block list. Previously
// removed follow edges are not restored.
func (r *GraphRepository) Unblock(actorID, otherID string) error {
	_, err := r.db.Exec(
		"DELETE FROM blocks WHERE user_id = ? AND blocked_id = ?",
		actorID, otherID)
	if err != nil {
		return fmt.Errorf("failed to remove block: %w", err)
	}
	return nil
}

// IsBlockedPair reports whether either direction of blocking holds.
func (r *GraphRepository) IsBlockedPair(a, b string) (bool, error) {
	return blockedPair(r.db, a, b)
}

func blockedPair(e execer, a, b string) (bool, error) {
	var exists bool
	err := e.QueryRow(
		`SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (user_id = ? AND blocked_id = ?) OR (user_id = ? AND blocked_id = ?)
		)`, a, b, b, a).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query blocks: %w", err)
	}
	return exists, nil
}

// requireUsers fails fast with [shared.ErrNotFound] when either user is
// missing, so graph operations never create edges to nonexistent ids.
func (r *GraphRepository) requireUsers(e execer, ids ...string) error {
	for _, id := range ids {
		var exists bool
		err := e.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
		}
	}
	return nil
}

func (r *GraphRepository) idList(query string, arg any) ([]string, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}
