package bug

import (
	"errors"
	"strings"
	"testing"

	"github.com/zulandar/bugyard/internal/models"
)

func validBug() *models.Bug {
	return &models.Bug{Title: "Login fails", Description: "500 on submit", Reporter: "ana"}
}

func TestNormalize_DefaultsAndTrim(t *testing.T) {
	b := &models.Bug{
		Title:       "  Crash on save  ",
		Description: "\tstack trace\n",
		Reporter:    " bo ",
		Environment: " linux ",
	}
	Normalize(b)

	if b.Title != "Crash on save" {
		t.Errorf("Title = %q", b.Title)
	}
	if b.Description != "stack trace" {
		t.Errorf("Description = %q", b.Description)
	}
	if b.Reporter != "bo" || b.Environment != "linux" {
		t.Errorf("Reporter/Environment = %q/%q", b.Reporter, b.Environment)
	}
	if b.Status != models.StatusOpen || b.Priority != models.LevelMedium || b.Severity != models.LevelMedium {
		t.Errorf("defaults = %s/%s/%s, want open/medium/medium", b.Status, b.Priority, b.Severity)
	}
	if b.Tags == nil || b.Attachments == nil {
		t.Error("Tags and Attachments should be non-nil after Normalize")
	}
}

func TestNormalize_DedupesTags(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "a", "b", "a"}, []string{"a", "b"}},
		{[]string{" ui ", "ui", "api"}, []string{"ui", "api"}},
		{[]string{"z", "y", "z", "x", "y"}, []string{"z", "y", "x"}},
		{nil, []string{}},
	}
	for _, tt := range tests {
		b := validBug()
		b.Tags = tt.in
		Normalize(b)
		if strings.Join(b.Tags, ",") != strings.Join(tt.want, ",") || len(b.Tags) != len(tt.want) {
			t.Errorf("Normalize(%v) tags = %v, want %v", tt.in, b.Tags, tt.want)
		}
	}
}

func TestNormalize_AssignedToTrimmed(t *testing.T) {
	b := validBug()
	a := "  kim "
	b.AssignedTo = &a
	Normalize(b)
	if b.AssignedTo == nil || *b.AssignedTo != "kim" {
		t.Errorf("AssignedTo = %v, want kim", b.AssignedTo)
	}
	if a != "  kim " {
		t.Error("Normalize modified caller's string")
	}
}

func TestNormalize_AttachmentTimestamp(t *testing.T) {
	b := validBug()
	b.Attachments = []models.Attachment{{Filename: " log.txt ", URL: "http://x/log.txt"}}
	Normalize(b)
	if b.Attachments[0].Filename != "log.txt" {
		t.Errorf("Filename = %q", b.Attachments[0].Filename)
	}
	if b.Attachments[0].UploadedAt.IsZero() {
		t.Error("UploadedAt not defaulted")
	}
}

func TestValidate_Valid(t *testing.T) {
	b := validBug()
	Normalize(b)
	if err := Validate(b); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_MissingRequiredCollectsAll(t *testing.T) {
	b := &models.Bug{}
	Normalize(b)
	err := Validate(b)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	for _, f := range []string{"title", "description", "reporter"} {
		if !verr.Has(f) {
			t.Errorf("missing violation for %s in %v", f, verr.Fields)
		}
	}
	if len(verr.Fields) != 3 {
		t.Errorf("got %d violations, want 3: %v", len(verr.Fields), verr.Fields)
	}
	want := "Title must be between 1 and 100 characters, Description must be between 1 and 1000 characters, Reporter name is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(b *models.Bug)
		field string
		msg   string
	}{
		{"title too long", func(b *models.Bug) { b.Title = strings.Repeat("x", 101) }, "title", "Title must be between 1 and 100 characters"},
		{"description too long", func(b *models.Bug) { b.Description = strings.Repeat("x", 1001) }, "description", "Description must be between 1 and 1000 characters"},
		{"bad status", func(b *models.Bug) { b.Status = "frozen" }, "status", "Status must be one of: open, in-progress, resolved, closed"},
		{"bad priority", func(b *models.Bug) { b.Priority = "urgent" }, "priority", "Priority must be one of: low, medium, high, critical"},
		{"bad severity", func(b *models.Bug) { b.Severity = "minor" }, "severity", "Severity must be one of: low, medium, high, critical"},
		{"empty assignee", func(b *models.Bug) { s := "   "; b.AssignedTo = &s }, "assignedTo", "Assigned to cannot be empty if provided"},
		{"steps too long", func(b *models.Bug) { b.StepsToReproduce = strings.Repeat("x", 501) }, "stepsToReproduce", "Steps to reproduce cannot exceed 500 characters"},
		{"expected too long", func(b *models.Bug) { b.ExpectedBehavior = strings.Repeat("x", 301) }, "expectedBehavior", "Expected behavior cannot exceed 300 characters"},
		{"actual too long", func(b *models.Bug) { b.ActualBehavior = strings.Repeat("x", 301) }, "actualBehavior", "Actual behavior cannot exceed 300 characters"},
		{"environment too long", func(b *models.Bug) { b.Environment = strings.Repeat("x", 201) }, "environment", "Environment cannot exceed 200 characters"},
		{"empty tag", func(b *models.Bug) { b.Tags = []string{"ok", "  "} }, "tags", "Tag cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBug()
			tt.mod(b)
			Normalize(b)
			err := Validate(b)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if !verr.Has(tt.field) {
				t.Errorf("no violation for %s: %v", tt.field, verr.Fields)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Error() = %q, want to contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestValidate_CountsCodePoints(t *testing.T) {
	b := validBug()
	// 100 multi-byte runes fit, 101 do not.
	b.Title = strings.Repeat("é", MaxTitle)
	Normalize(b)
	if err := Validate(b); err != nil {
		t.Errorf("100-rune title rejected: %v", err)
	}
	b.Title += "é"
	if err := Validate(b); err == nil {
		t.Error("101-rune title accepted")
	}
}

func TestValidateComment(t *testing.T) {
	if err := ValidateComment("A", "C"); err != nil {
		t.Errorf("ValidateComment(A, C) = %v", err)
	}

	err := ValidateComment(" ", "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if !verr.Has("author") || !verr.Has("content") {
		t.Errorf("violations = %v, want author and content", verr.Fields)
	}

	if err := ValidateComment("A", strings.Repeat("x", MaxCommentContent+1)); err == nil {
		t.Error("over-long comment accepted")
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range models.Statuses {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%q) = %v", s, err)
		}
	}
	for _, s := range []string{"", "frozen", "Open"} {
		if err := ValidateStatus(s); err == nil {
			t.Errorf("ValidateStatus(%q) = nil, want error", s)
		}
	}
}
