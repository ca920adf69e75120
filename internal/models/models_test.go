package models

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestBug_Fields(t *testing.T) {
	typ := reflect.TypeOf(Bug{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "Title", "not null")
	assertGormTag(t, typ, "Description", "type:text")
	assertGormTag(t, typ, "Status", "default:open")
	assertGormTag(t, typ, "Priority", "default:medium")
	assertGormTag(t, typ, "Severity", "default:medium")
	assertGormTag(t, typ, "Tags", "serializer:json")
	assertGormTag(t, typ, "Attachments", "serializer:json")
	assertGormTag(t, typ, "Comments", "foreignKey:BugID")
	assertGormTag(t, typ, "Age", "-")

	assertFieldType(t, typ, "ID", "string")
	assertFieldType(t, typ, "AssignedTo", "*string")
	assertFieldType(t, typ, "Tags", "[]string")
	assertFieldType(t, typ, "Attachments", "[]models.Attachment")
	assertFieldType(t, typ, "Comments", "[]models.Comment")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
	assertFieldType(t, typ, "UpdatedAt", "time.Time")
}

func TestComment_Fields(t *testing.T) {
	typ := reflect.TypeOf(Comment{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "autoIncrement")
	assertGormTag(t, typ, "BugID", "index")
	assertGormTag(t, typ, "Content", "type:text")

	assertFieldType(t, typ, "ID", "uint")
	assertFieldType(t, typ, "CreatedAt", "time.Time")

	if got := (Comment{}).TableName(); got != "bug_comments" {
		t.Errorf("Comment.TableName() = %q, want bug_comments", got)
	}
}

func TestIsStatus(t *testing.T) {
	for _, s := range Statuses {
		if !IsStatus(s) {
			t.Errorf("IsStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "frozen", "Open", "in_progress"} {
		if IsStatus(s) {
			t.Errorf("IsStatus(%q) = true, want false", s)
		}
	}
}

func TestLevelRank(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"low", 0},
		{"medium", 1},
		{"high", 2},
		{"critical", 3},
		{"urgent", -1},
	}
	for _, tt := range tests {
		if got := LevelRank(tt.level); got != tt.want {
			t.Errorf("LevelRank(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestBug_AgeAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := Bug{CreatedAt: created}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"same instant", created, 0},
		{"just under a day", created.Add(23*time.Hour + 59*time.Minute), 0},
		{"one day", created.Add(24 * time.Hour), 1},
		{"ten and a half days", created.Add(10*24*time.Hour + 12*time.Hour), 10},
		{"clock behind", created.Add(-time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.AgeAt(tt.now); got != tt.want {
				t.Errorf("AgeAt() = %d, want %d", got, tt.want)
			}
		})
	}

	var zero Bug
	if got := zero.AgeAt(created); got != 0 {
		t.Errorf("zero CreatedAt AgeAt() = %d, want 0", got)
	}
}

func TestBug_BeforeCreateAssignsID(t *testing.T) {
	b := Bug{}
	if err := b.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if _, err := uuid.Parse(b.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", b.ID, err)
	}

	keep := Bug{ID: "00000000-0000-4000-8000-000000000001"}
	keep.BeforeCreate(nil)
	if keep.ID != "00000000-0000-4000-8000-000000000001" {
		t.Errorf("BeforeCreate overwrote explicit ID: %q", keep.ID)
	}
}

func TestBug_BeforeSaveRejectsBadEnums(t *testing.T) {
	valid := Bug{Status: StatusOpen, Priority: LevelMedium, Severity: LevelMedium}
	if err := valid.BeforeSave(nil); err != nil {
		t.Fatalf("valid bug rejected: %v", err)
	}

	tests := []struct {
		name string
		mut  func(*Bug)
		want string
	}{
		{"status", func(b *Bug) { b.Status = "frozen" }, "status"},
		{"priority", func(b *Bug) { b.Priority = "urgent" }, "priority"},
		{"severity", func(b *Bug) { b.Severity = "" }, "severity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mut(&b)
			err := b.BeforeSave(nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to mention %q", err, tt.want)
			}
		})
	}
}
