package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

// UserRepository implements [models.Repository] for [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence.
// Usernames are unique under case-insensitive comparison; a collision
// fails with [shared.ErrUsernameTaken] and no row is written.
func (r *UserRepository) Create(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var taken bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = ? COLLATE NOCASE)",
		user.Username(),
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %s", shared.ErrUsernameTaken, user.Username())
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	user.SetID(id)

	query := `
		INSERT INTO users (id, sequence, username, password_hash, display_name, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var displayName any = user.DisplayName()
	if displayName == "" {
		displayName = nil
	}

	_, err = r.db.Exec(query, id, sequence, user.Username(), user.PasswordHash(),
		displayName, user.Public(), user.CreatedAt(), user.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.getWhere("id = ?", id)
}

// GetByUsername retrieves a user by handle, compared case-insensitively.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getWhere("username = ? COLLATE NOCASE", models.NormalizeUsername(username))
}

func (r *UserRepository) getWhere(where string, arg any) (*models.User, error) {
	query := `
		SELECT id, sequence, username, password_hash, display_name, public, created_at, updated_at
		FROM users
		WHERE ` + where

	var (
		userID       string
		sequence     int
		username     string
		passwordHash string
		displayName  sql.NullString
		public       bool
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := r.db.QueryRow(query, arg).Scan(&userID, &sequence, &username, &passwordHash,
		&displayName, &public, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %v", shared.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user := models.NewUser(sequence, username, passwordHash)
	user.SetID(userID)
	user.SetPublic(public)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if displayName.Valid {
		user.SetDisplayName(displayName.String)
	}

	return user, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET username = ?, password_hash = ?, display_name = ?, public = ?, updated_at = ?
		WHERE id = ?
	`

	var displayName any = user.DisplayName()
	if displayName == "" {
		displayName = nil
	}

	result, err := r.db.Exec(query, user.Username(), user.PasswordHash(), displayName,
		user.Public(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, user.ID())
	}

	return nil
}

// ApplyProfileUpdate applies a single [models.ProfileUpdate] variant as
// one atomic statement. Each variant is validated on its own before any
// write happens.
func (r *UserRepository) ApplyProfileUpdate(userID string, update models.ProfileUpdate) error {
	now := time.Now()

	var (
		result sql.Result
		err    error
	)

	switch u := update.(type) {
	case models.UsernameUpdate:
		check := struct {
			Username string `validate:"required,min=3,max=30,handle"`
		}{Username: u.Username}
		if err := models.CheckFields(check); err != nil {
			return err
		}

		var takenBy sql.NullString
		err = r.db.QueryRow(
			"SELECT id FROM users WHERE username = ? COLLATE NOCASE", u.Username,
		).Scan(&takenBy)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if takenBy.Valid && takenBy.String != userID {
			return fmt.Errorf("%w: %s", shared.ErrUsernameTaken, u.Username)
		}

		result, err = r.db.Exec(
			"UPDATE users SET username = ?, updated_at = ? WHERE id = ?",
			u.Username, now, userID)

	case models.PasswordUpdate:
		if u.Hash == "" {
			return fmt.Errorf("%w: empty password hash", shared.ErrValidation)
		}
		result, err = r.db.Exec(
			"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
			u.Hash, now, userID)

	case models.DisplayNameUpdate:
		if len(u.DisplayName) > 30 {
			return fmt.Errorf("%w: display name exceeds 30 characters", shared.ErrValidation)
		}
		var displayName any = u.DisplayName
		if displayName == "" {
			displayName = nil
		}
		result, err = r.db.Exec(
			"UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?",
			displayName, now, userID)

	case models.VisibilityUpdate:
		result, err = r.db.Exec(
			"UPDATE users SET public = ?, updated_at = ? WHERE id = ?",
			u.Public, now, userID)

	default:
		return fmt.Errorf("%w: unknown profile update variant %T", shared.ErrValidation, update)
	}

	if err != nil {
		return fmt.Errorf("failed to apply profile update: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, userID)
	}

	return nil
}

// SetVisibility flips the profile between public and private.
func (r *UserRepository) SetVisibility(userID string, public bool) error {
	return r.ApplyProfileUpdate(userID, models.VisibilityUpdate{Public: public})
}

// Delete removes a user and all their posts. Posts go first so that a
// partial failure never leaves dangling references to a missing author.
func (r *UserRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM posts WHERE author_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user posts: %w", err)
	}

	result, err := tx.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	return nil
}

// List retrieves all users matching the given criteria.
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `
		SELECT id, sequence, username, password_hash, display_name, public, created_at, updated_at
		FROM users
		WHERE 1 = 1
	`

	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ? COLLATE NOCASE"
		args = append(args, username)
	}

	if public, ok := criteria["public"].(bool); ok {
		query += " AND public = ?"
		args = append(args, public)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var (
			userID       string
			sequence     int
			username     string
			passwordHash string
			displayName  sql.NullString
			public       bool
			createdAt    time.Time
			updatedAt    time.Time
		)

		err := rows.Scan(&userID, &sequence, &username, &passwordHash,
			&displayName, &public, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user := models.NewUser(sequence, username, passwordHash)
		user.SetID(userID)
		user.SetPublic(public)
		user.SetCreatedAt(createdAt)
		user.SetUpdatedAt(updatedAt)
		if displayName.Valid {
			user.SetDisplayName(displayName.String)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}
