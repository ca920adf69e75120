package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status values.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Priority and severity share one scale.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

var (
	// Statuses lists valid bug statuses in lifecycle order.
	Statuses = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
	// Levels lists valid priority/severity values from lowest to highest.
	Levels = []string{LevelLow, LevelMedium, LevelHigh, LevelCritical}
)

// Bug is the tracked defect record.
type Bug struct {
	ID               string       `gorm:"primaryKey;size:36" json:"id"`
	Title            string       `gorm:"size:100;not null" json:"title"`
	Description      string       `gorm:"type:text;not null" json:"description"`
	Status           string       `gorm:"size:16;default:open;index:idx_bugs_status_priority" json:"status"`
	Priority         string       `gorm:"size:16;default:medium;index:idx_bugs_status_priority" json:"priority"`
	Severity         string       `gorm:"size:16;default:medium" json:"severity"`
	Reporter         string       `gorm:"size:128;not null" json:"reporter"`
	AssignedTo       *string      `gorm:"size:128" json:"assignedTo"`
	StepsToReproduce string       `gorm:"type:text" json:"stepsToReproduce"`
	ExpectedBehavior string       `gorm:"type:text" json:"expectedBehavior"`
	ActualBehavior   string       `gorm:"type:text" json:"actualBehavior"`
	Environment      string       `gorm:"size:200" json:"environment"`
	Tags             []string     `gorm:"type:text;serializer:json" json:"tags"`
	Attachments      []Attachment `gorm:"type:text;serializer:json" json:"attachments"`
	CreatedAt        time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`

	Comments []Comment `gorm:"foreignKey:BugID;constraint:OnDelete:CASCADE" json:"comments"`

	// Age is whole days since CreatedAt, filled in on read.
	Age int `gorm:"-" json:"age"`
}

// Comment is an append-only note on a bug.
type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	BugID     string    `gorm:"size:36;index;not null" json:"-"`
	Author    string    `gorm:"size:128;not null" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps comments grouped with their parent table.
func (Comment) TableName() string { return "bug_comments" }

// Attachment is stored as-is alongside the bug.
type Attachment struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// IsStatus reports whether s is a known status.
func IsStatus(s string) bool { return slices.Contains(Statuses, s) }

// IsLevel reports whether s is a known priority/severity.
func IsLevel(s string) bool { return slices.Contains(Levels, s) }

// LevelRank returns the position of a level on the low→critical scale, or -1.
func LevelRank(s string) int { return slices.Index(Levels, s) }

// AgeAt returns whole days elapsed between CreatedAt and now.
func (b *Bug) AgeAt(now time.Time) int {
	if b.CreatedAt.IsZero() || now.Before(b.CreatedAt) {
		return 0
	}
	return int(now.Sub(b.CreatedAt) / (24 * time.Hour))
}

// BeforeCreate assigns a UUID when the caller did not.
func (b *Bug) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave refuses rows whose enumerated fields are out of range.
func (b *Bug) BeforeSave(tx *gorm.DB) error {
	if !IsStatus(b.Status) {
		return fmt.Errorf("models: invalid status %q", b.Status)
	}
	if !IsLevel(b.Priority) {
		return fmt.Errorf("models: invalid priority %q", b.Priority)
	}
	if !IsLevel(b.Severity) {
		return fmt.Errorf("models: invalid severity %q", b.Severity)
	}
	return nil
}

// AfterFind fills the derived Age and replaces nil lists with empty ones.
func (b *Bug) AfterFind(tx *gorm.DB) error {
	b.Age = b.AgeAt(time.Now())
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Attachments == nil {
		b.Attachments = []Attachment{}
	}
	if b.Comments == nil {
		b.Comments = []Comment{}
	}
	return nil
}
