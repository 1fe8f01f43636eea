package user

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"
)

const maxUsernameLength = 150

// User is an account that can own articles.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:150;uniqueIndex:idx_users_username;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName defines the table name for the User model.
func (User) TableName() string {
	return "users"
}

// New builds a user with a bcrypt-hashed password.
func New(username, password string) (*User, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, eris.New("username is required")
	}
	if len([]rune(trimmed)) > maxUsernameLength {
		return nil, eris.Errorf("username exceeds %d characters", maxUsernameLength)
	}
	if password == "" {
		return nil, eris.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, eris.Wrap(err, "hashing password")
	}

	return &User{Username: trimmed, PasswordHash: string(hash)}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
