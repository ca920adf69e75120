package bug

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zulandar/bugyard/internal/models"
)

// Field bounds, counted in code points after trimming.
const (
	MaxTitle            = 100
	MaxDescription      = 1000
	MaxStepsToReproduce = 500
	MaxExpectedBehavior = 300
	MaxActualBehavior   = 300
	MaxEnvironment      = 200
	MaxCommentContent   = 500
)

var (
	msgStatus   = "Status must be one of: " + strings.Join(models.Statuses, ", ")
	msgPriority = "Priority must be one of: " + strings.Join(models.Levels, ", ")
	msgSeverity = "Severity must be one of: " + strings.Join(models.Levels, ", ")
)

// FieldError is a single constraint violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violation found in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, ", ")
}

// Has reports whether a violation was recorded for field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// err returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Normalize trims string fields, de-duplicates tags and fills enum defaults.
// It is applied before every persist.
func Normalize(b *models.Bug) {
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	b.Reporter = strings.TrimSpace(b.Reporter)
	b.StepsToReproduce = strings.TrimSpace(b.StepsToReproduce)
	b.ExpectedBehavior = strings.TrimSpace(b.ExpectedBehavior)
	b.ActualBehavior = strings.TrimSpace(b.ActualBehavior)
	b.Environment = strings.TrimSpace(b.Environment)
	b.Status = strings.TrimSpace(b.Status)
	b.Priority = strings.TrimSpace(b.Priority)
	b.Severity = strings.TrimSpace(b.Severity)
	if b.AssignedTo != nil {
		a := strings.TrimSpace(*b.AssignedTo)
		b.AssignedTo = &a
	}

	if b.Status == "" {
		b.Status = models.StatusOpen
	}
	if b.Priority == "" {
		b.Priority = models.LevelMedium
	}
	if b.Severity == "" {
		b.Severity = models.LevelMedium
	}

	b.Tags = dedupeTags(b.Tags)

	if b.Attachments == nil {
		b.Attachments = []models.Attachment{}
	}
	for i := range b.Attachments {
		a := &b.Attachments[i]
		a.Filename = strings.TrimSpace(a.Filename)
		a.URL = strings.TrimSpace(a.URL)
		if a.UploadedAt.IsZero() {
			a.UploadedAt = time.Now()
		}
	}
}

// dedupeTags trims tags and drops repeats, keeping first-occurrence order.
// Empty tags are kept so Validate can report them.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Validate checks a normalized bug against every field constraint.
func Validate(b *models.Bug) error {
	v := &ValidationError{}

	if n := utf8.RuneCountInString(b.Title); n < 1 || n > MaxTitle {
		v.add("title", "Title must be between 1 and 100 characters")
	}
	if n := utf8.RuneCountInString(b.Description); n < 1 || n > MaxDescription {
		v.add("description", "Description must be between 1 and 1000 characters")
	}
	if !models.IsStatus(b.Status) {
		v.add("status", msgStatus)
	}
	if !models.IsLevel(b.Priority) {
		v.add("priority", msgPriority)
	}
	if !models.IsLevel(b.Severity) {
		v.add("severity", msgSeverity)
	}
	if b.Reporter == "" {
		v.add("reporter", "Reporter name is required")
	}
	if b.AssignedTo != nil && *b.AssignedTo == "" {
		v.add("assignedTo", "Assigned to cannot be empty if provided")
	}
	if utf8.RuneCountInString(b.StepsToReproduce) > MaxStepsToReproduce {
		v.add("stepsToReproduce", "Steps to reproduce cannot exceed 500 characters")
	}
	if utf8.RuneCountInString(b.ExpectedBehavior) > MaxExpectedBehavior {
		v.add("expectedBehavior", "Expected behavior cannot exceed 300 characters")
	}
	if utf8.RuneCountInString(b.ActualBehavior) > MaxActualBehavior {
		v.add("actualBehavior", "Actual behavior cannot exceed 300 characters")
	}
	if utf8.RuneCountInString(b.Environment) > MaxEnvironment {
		v.add("environment", "Environment cannot exceed 200 characters")
	}
	for _, t := range b.Tags {
		if t == "" {
			v.add("tags", "Tag cannot be empty")
			break
		}
	}

	return v.err()
}

// ValidateComment checks the comment sub-record constraints.
func ValidateComment(author, content string) error {
	v := &ValidationError{}
	if strings.TrimSpace(author) == "" {
		v.add("author", "Author name is required")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(content)); n < 1 || n > MaxCommentContent {
		v.add("content", "Comment content must be between 1 and 500 characters")
	}
	return v.err()
}

// ValidateStatus checks s against the status enum.
func ValidateStatus(s string) error {
	if !models.IsStatus(s) {
		v := &ValidationError{}
		v.add("status", msgStatus)
		return v
	}
	return nil
}
