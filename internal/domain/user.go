package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// MaxNameLen is counted in characters, not bytes.
const MaxNameLen = 100

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Email     string         `gorm:"size:191;not null" json:"email"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// BeforeSave keeps stored emails normalized no matter which path wrote them.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NewUser validates and normalizes a name/email pair.
func NewUser(name, email string) (*User, error) {
	u := &User{}
	if err := u.SetProfile(name, email); err != nil {
		return nil, err
	}
	return u, nil
}

// SetProfile replaces name and email after applying the entity rules.
func (u *User) SetProfile(name, email string) error {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	u.Name, u.Email = name, email
	return nil
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ValidEmail reports whether s has the basic local@domain.tld shape.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

func ValidateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if NameTooLong(name) {
		return ErrNameTooLong
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !ValidEmail(email) {
		return ErrEmailInvalid
	}
	return nil
}

func NameTooLong(name string) bool { return utf8.RuneCountInString(name) > MaxNameLen }

// UserRepository is the storage port. Create reports ErrDuplicateEmail when the
// storage uniqueness constraint rejects the row; lookups and deletes of absent
// rows report ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindAndCount(ctx context.Context, q ListQuery) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	SoftDelete(ctx context.Context, id uint) error
	SoftDeleteMany(ctx context.Context, ids []uint) (int64, error)
	ListAll(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)
}
