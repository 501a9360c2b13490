package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for unknown emails or wrong passwords.
var ErrBadCredentials = errors.New("auth: invalid credentials")

// ErrEmailTaken is returned when creating a user with an existing email.
var ErrEmailTaken = errors.New("auth: email already registered")

// User is an account that can sign in.
type User struct {
	ID           int64
	Email        string
	FullName     string
	Role         string
	PasswordHash string
}

// Repository persists users and refresh tokens.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Authenticate verifies email and password and returns the user.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, password_hash
		FROM users WHERE email = $1
	`, email)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CreateUser hashes the password and inserts the account.
func (r *Repository) CreateUser(ctx context.Context, email, fullName, role, password string) (User, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrEmailTaken
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := User{Email: email, FullName: fullName, Role: role, PasswordHash: hash}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, full_name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, email, fullName, role, hash)
	if err := row.Scan(&u.ID); err != nil {
		return User{}, err
	}
	return u, nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
