package notify

import (
	"fmt"
	"unicode/utf8"

	"github.com/zulandar/bugyard/internal/models"
)

// Sidebar colors.
const (
	ColorSuccess  = "#36a64f"
	ColorInfo     = "#2196f3"
	ColorWarning  = "#ff9800"
	ColorError    = "#e53935"
	ColorCritical = "#8e0000"
)

// maxBody caps the description excerpt in a message.
const maxBody = 300

// Message is a platform-neutral rendering of an event.
type Message struct {
	Text   string // plain fallback
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a key-value pair displayed alongside the message.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// severityColor maps a bug severity to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case models.LevelLow:
		return ColorInfo
	case models.LevelMedium:
		return ColorWarning
	case models.LevelHigh:
		return ColorError
	case models.LevelCritical:
		return ColorCritical
	default:
		return ColorInfo
	}
}

// statusVerb returns a human-friendly verb for a status transition.
func statusVerb(status string) string {
	switch status {
	case models.StatusOpen:
		return "reopened"
	case models.StatusInProgress:
		return "picked up"
	case models.StatusResolved:
		return "resolved"
	case models.StatusClosed:
		return "closed"
	default:
		return "updated"
	}
}

func statusColor(status string) string {
	switch status {
	case models.StatusResolved, models.StatusClosed:
		return ColorSuccess
	case models.StatusInProgress:
		return ColorWarning
	default:
		return ColorInfo
	}
}

// Format renders e for chat.
func Format(e Event) Message {
	b := e.Bug
	fields := []Field{
		{Name: "Priority", Value: b.Priority, Short: true},
		{Name: "Severity", Value: b.Severity, Short: true},
		{Name: "Reporter", Value: b.Reporter, Short: true},
	}
	if b.AssignedTo != nil && *b.AssignedTo != "" {
		fields = append(fields, Field{Name: "Assigned To", Value: *b.AssignedTo, Short: true})
	}
	fields = append(fields, Field{Name: "ID", Value: b.ID})

	switch e.Kind {
	case KindStatusChanged:
		title := fmt.Sprintf("Bug %s: %s", statusVerb(b.Status), b.Title)
		return Message{
			Text:   title,
			Title:  title,
			Body:   fmt.Sprintf("%s → %s", e.PrevStatus, b.Status),
			Color:  statusColor(b.Status),
			Fields: fields,
		}
	default:
		title := fmt.Sprintf("New %s priority bug: %s", b.Priority, b.Title)
		return Message{
			Text:   title,
			Title:  title,
			Body:   truncate(b.Description, maxBody),
			Color:  severityColor(b.Severity),
			Fields: fields,
		}
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
