package article

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"blogposts/app/internal/user"
)

const (
	MaxTitleLength = 250
	MaxSlugLength  = 50
	SlugPattern    = `^[-a-zA-Z0-9_]+$`
)

var slugRegexp = regexp.MustCompile(SlugPattern)

// Article is a titled piece of content owned by a user.
type Article struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:250;not null"`
	Slug      string    `gorm:"size:50;index:idx_articles_slug;not null"`
	AuthorID  uint      `gorm:"not null;index:idx_articles_author_id"`
	Author    user.User `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	Published bool      `gorm:"not null;default:false"`
}

// TableName defines the table name for the Article model.
func (Article) TableName() string {
	return "articles"
}

// Fields are the client-writable attributes of an article. Create and update both take
// the full set.
type Fields struct {
	Title     string
	Slug      string
	AuthorID  uint
	Content   string
	Published bool
}

// Normalize trims surrounding whitespace from the text fields.
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Content = strings.TrimSpace(f.Content)
	return f
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

// ValidationError is returned when a payload violates a field constraint. Nothing is
// written when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string, value any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Value: value})
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the field constraints that do not need the store. Callers are expected
// to pass normalized fields.
func Validate(f Fields) *ValidationError {
	verr := &ValidationError{}

	switch {
	case f.Title == "":
		verr.add("title", "this field may not be blank", f.Title)
	case utf8.RuneCountInString(f.Title) > MaxTitleLength:
		verr.add("title", fmt.Sprintf("ensure this field has no more than %d characters", MaxTitleLength), f.Title)
	}

	switch {
	case f.Slug == "":
		verr.add("slug", "this field may not be blank", f.Slug)
	case utf8.RuneCountInString(f.Slug) > MaxSlugLength:
		verr.add("slug", fmt.Sprintf("ensure this field has no more than %d characters", MaxSlugLength), f.Slug)
	case !slugRegexp.MatchString(f.Slug):
		verr.add("slug", "enter a valid slug consisting of letters, numbers, underscores or hyphens", f.Slug)
	}

	if f.AuthorID == 0 {
		verr.add("author", "this field is required", f.AuthorID)
	}

	if f.Content == "" {
		verr.add("content", "this field may not be blank", f.Content)
	}

	return verr.orNil()
}
