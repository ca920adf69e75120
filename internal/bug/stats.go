package bug

import (
	"context"
	"fmt"

	"github.com/zulandar/bugyard/internal/models"
	"gorm.io/gorm"
)

// Summary is a collection-wide snapshot of bug counts.
type Summary struct {
	Total             int64            `json:"total"`
	Open              int64            `json:"open"`
	Resolved          int64            `json:"resolved"`
	StatusBreakdown   map[string]int64 `json:"statusBreakdown"`
	PriorityBreakdown map[string]int64 `json:"priorityBreakdown"`
	SeverityBreakdown map[string]int64 `json:"severityBreakdown"`
}

// groupCount is one row of a GROUP BY count.
type groupCount struct {
	Value string
	Count int64
}

// Stats counts every bug, grouped by status, priority and severity. It is
// recomputed on each call.
func Stats(ctx context.Context, db *gorm.DB) (*Summary, error) {
	db = db.WithContext(ctx)
	s := &Summary{}

	var err error
	if s.StatusBreakdown, err = breakdown(db, "status"); err != nil {
		return nil, err
	}
	if s.PriorityBreakdown, err = breakdown(db, "priority"); err != nil {
		return nil, err
	}
	if s.SeverityBreakdown, err = breakdown(db, "severity"); err != nil {
		return nil, err
	}

	for _, n := range s.StatusBreakdown {
		s.Total += n
	}
	s.Open = s.StatusBreakdown[models.StatusOpen]
	s.Resolved = s.StatusBreakdown[models.StatusResolved]
	return s, nil
}

// breakdown returns value→count for column, omitting absent values.
func breakdown(db *gorm.DB, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := db.Model(&models.Bug{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Order(column + " ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("bug: stats by %s: %w", column, err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Value] = r.Count
	}
	return out, nil
}
