// Package bug provides bug record validation, querying and lifecycle operations.
package bug

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/bugyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound means the id is well-formed but no bug has it.
	ErrNotFound = errors.New("bug: not found")
	// ErrInvalidID means the id is not in the store's identifier format.
	ErrInvalidID = errors.New("bug: invalid id")
)

// Patch carries caller-supplied fields for create and update. Nil fields
// are left as they are (or defaulted on create). Unassign clears
// AssignedTo; in JSON it is set by an explicit "assignedTo": null.
type Patch struct {
	Title            *string              `json:"title"`
	Description      *string              `json:"description"`
	Status           *string              `json:"status"`
	Priority         *string              `json:"priority"`
	Severity         *string              `json:"severity"`
	Reporter         *string              `json:"reporter"`
	AssignedTo       *string              `json:"assignedTo"`
	StepsToReproduce *string              `json:"stepsToReproduce"`
	ExpectedBehavior *string              `json:"expectedBehavior"`
	ActualBehavior   *string              `json:"actualBehavior"`
	Environment      *string              `json:"environment"`
	Tags             *[]string            `json:"tags"`
	Attachments      *[]models.Attachment `json:"attachments"`
	Unassign         bool                 `json:"-"`
}

// UnmarshalJSON decodes p, telling an explicit null assignee apart from
// an absent one.
func (p *Patch) UnmarshalJSON(data []byte) error {
	type plain Patch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["assignedTo"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		p.Unassign = true
	}
	return nil
}

// Apply copies every non-nil field of p onto b.
func (p Patch) Apply(b *models.Bug) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.Title, p.Title)
	set(&b.Description, p.Description)
	set(&b.Status, p.Status)
	set(&b.Priority, p.Priority)
	set(&b.Severity, p.Severity)
	set(&b.Reporter, p.Reporter)
	set(&b.StepsToReproduce, p.StepsToReproduce)
	set(&b.ExpectedBehavior, p.ExpectedBehavior)
	set(&b.ActualBehavior, p.ActualBehavior)
	set(&b.Environment, p.Environment)
	switch {
	case p.Unassign:
		b.AssignedTo = nil
	case p.AssignedTo != nil:
		a := *p.AssignedTo
		b.AssignedTo = &a
	}
	if p.Tags != nil {
		b.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Attachments != nil {
		b.Attachments = append([]models.Attachment(nil), (*p.Attachments)...)
	}
}

// ValidID reports whether id is a canonical UUID string.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Create normalizes, validates and inserts a new bug built from p.
func Create(ctx context.Context, db *gorm.DB, p Patch) (*models.Bug, error) {
	b := &models.Bug{}
	p.Apply(b)
	Normalize(b)
	if err := Validate(b); err != nil {
		return nil, err
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := db.WithContext(ctx).Omit(clause.Associations).Create(b).Error; err != nil {
		return nil, fmt.Errorf("bug: create: %w", err)
	}
	b.Comments = []models.Comment{}
	b.Age = b.AgeAt(now)
	return b, nil
}

// Get retrieves a bug by ID with its comments in append order.
func Get(ctx context.Context, db *gorm.DB, id string) (*models.Bug, error) {
	return load(db.WithContext(ctx), id)
}

// List returns one page of bugs matching plan and the number of matches
// before pagination.
func List(ctx context.Context, db *gorm.DB, plan Plan) ([]models.Bug, int64, error) {
	db = db.WithContext(ctx)

	var total int64
	if err := plan.filter(db.Model(&models.Bug{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("bug: count: %w", err)
	}

	bugs := []models.Bug{}
	if err := plan.filter(db.Model(&models.Bug{})).
		Preload("Comments", orderComments).
		Order(plan.Order()).
		Offset(plan.Skip).
		Limit(plan.Limit).
		Find(&bugs).Error; err != nil {
		return nil, 0, fmt.Errorf("bug: list: %w", err)
	}
	return bugs, total, nil
}

// ByStatus returns every bug with the given status, oldest first.
func ByStatus(ctx context.Context, db *gorm.DB, status string) ([]models.Bug, error) {
	if !models.IsStatus(status) {
		v := &ValidationError{}
		v.add("status", "Invalid status. Must be one of: "+strings.Join(models.Statuses, ", "))
		return nil, v
	}

	bugs := []models.Bug{}
	if err := db.WithContext(ctx).
		Preload("Comments", orderComments).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Find(&bugs).Error; err != nil {
		return nil, fmt.Errorf("bug: by status %s: %w", status, err)
	}
	return bugs, nil
}

// Update merges p into the stored bug, re-validates the whole record and
// saves it. Comments and creation time are never touched.
func Update(ctx context.Context, db *gorm.DB, id string, p Patch) (*models.Bug, error) {
	return mutate(ctx, db, id, func(tx *gorm.DB, b *models.Bug, now time.Time) error {
		p.Apply(b)
		Normalize(b)
		return Validate(b)
	})
}

// UpdateStatus moves a bug to status. An invalid status leaves the stored
// record unchanged.
func UpdateStatus(ctx context.Context, db *gorm.DB, id, status string) (*models.Bug, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	status = strings.TrimSpace(status)
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}
	return mutate(ctx, db, id, func(tx *gorm.DB, b *models.Bug, now time.Time) error {
		b.Status = status
		Normalize(b)
		return Validate(b)
	})
}

// AddComment appends a comment and refreshes the bug's UpdatedAt.
func AddComment(ctx context.Context, db *gorm.DB, id, author, content string) (*models.Bug, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	if err := ValidateComment(author, content); err != nil {
		return nil, err
	}
	return mutate(ctx, db, id, func(tx *gorm.DB, b *models.Bug, now time.Time) error {
		c := models.Comment{
			BugID:     b.ID,
			Author:    strings.TrimSpace(author),
			Content:   strings.TrimSpace(content),
			CreatedAt: now,
		}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("bug: add comment to %s: %w", b.ID, err)
		}
		Normalize(b)
		return nil
	})
}

// Delete removes a bug and its comments. Deleting an absent bug is ErrNotFound.
func Delete(ctx context.Context, db *gorm.DB, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Bug{})
		if res.Error != nil {
			return fmt.Errorf("bug: delete %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("bug_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("bug: delete comments of %s: %w", id, err)
		}
		return nil
	})
}

// mutate loads a bug inside a transaction, lets fn change it, then writes
// the whole row back with a fresh UpdatedAt and returns the reloaded record.
func mutate(ctx context.Context, db *gorm.DB, id string, fn func(tx *gorm.DB, b *models.Bug, now time.Time) error) (*models.Bug, error) {
	var out *models.Bug
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := load(tx, id)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := fn(tx, b, now); err != nil {
			return err
		}
		if now.Before(b.CreatedAt) {
			now = b.CreatedAt
		}
		b.UpdatedAt = now

		// The row was loaded in this transaction, so zero affected rows
		// means nothing changed, not that it is gone.
		if err := tx.Model(b).
			Select("*").
			Omit("ID", "CreatedAt", clause.Associations).
			Updates(b).Error; err != nil {
			return fmt.Errorf("bug: save %s: %w", id, err)
		}

		out, err = load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// load fetches one bug with comments, classifying bad and missing ids.
func load(tx *gorm.DB, id string) (*models.Bug, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	var b models.Bug
	if err := tx.Preload("Comments", orderComments).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bug: get %s: %w", id, err)
	}
	return &b, nil
}

func orderComments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}
