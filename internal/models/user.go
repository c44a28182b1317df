package models

import (
	"time"
)

// User represents a registered account: login handle, password hash,
// profile visibility, and timestamps. The social relations (follows,
// blocks, pending requests) live in their own tables and are reached
// through the graph repository rather than fields on this struct.
type User struct {
	id           string
	sequence     int
	username     string
	passwordHash string
	displayName  string
	public       bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a user with the given handle and password hash.
// Visibility defaults to public, matching registration behavior.
func NewUser(sequence int, username, passwordHash string) *User {
	now := time.Now()
	return &User{
		sequence:     sequence,
		username:     username,
		passwordHash: passwordHash,
		public:       true,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (u *User) ID() string           { return u.id }
func (u *User) Sequence() int        { return u.sequence }
func (u *User) Username() string     { return u.username }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) DisplayName() string  { return u.displayName }
func (u *User) Public() bool         { return u.public }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

func (u *User) SetID(id string)             { u.id = id }
func (u *User) SetUsername(username string) { u.username = username }
func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }
func (u *User) SetDisplayName(name string)  { u.displayName = name }
func (u *User) SetPublic(public bool)       { u.public = public }
func (u *User) SetCreatedAt(t time.Time)    { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)    { u.updatedAt = t }

// Handle returns the name shown on posts and comments: the display name
// when set, otherwise the username.
func (u *User) Handle() string {
	if u.displayName != "" {
		return u.displayName
	}
	return u.username
}

// Validate checks username charset and display name length.
func (u *User) Validate() error {
	params := struct {
		Username    string `validate:"required,min=3,max=30,handle"`
		Hash        string `validate:"required"`
		DisplayName string `validate:"omitempty,max=30"`
	}{
		Username:    u.username,
		Hash:        u.passwordHash,
		DisplayName: u.displayName,
	}

	return checkStruct(params)
}

// ProfileUpdate is a closed command type for profile edits; each variant
// updates exactly one field and is validated on its own. Arbitrary
// key/value update maps are deliberately not supported.
type ProfileUpdate interface {
	isProfileUpdate()
}

// UsernameUpdate changes the login handle. Uniqueness is checked
// case-insensitively at apply time.
type UsernameUpdate struct {
	Username string
}

// PasswordUpdate replaces the stored credential. The plaintext is
// re-hashed on every update, never stored.
type PasswordUpdate struct {
	Hash string
}

// DisplayNameUpdate changes the optional display name; an empty value
// clears it.
type DisplayNameUpdate struct {
	DisplayName string
}

// VisibilityUpdate flips the profile between public and private.
type VisibilityUpdate struct {
	Public bool
}

func (UsernameUpdate) isProfileUpdate()    {}
func (PasswordUpdate) isProfileUpdate()    {}
func (DisplayNameUpdate) isProfileUpdate() {}
func (VisibilityUpdate) isProfileUpdate()  {}
