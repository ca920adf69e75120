package bug

import (
	"math"
	"strconv"
	"strings"

	"github.com/zulandar/bugyard/internal/models"
	"gorm.io/gorm"
)

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "-createdAt"
)

// sortColumns maps the public sort keys to their column names.
var sortColumns = map[string]string{
	"title":       "title",
	"description": "description",
	"status":      "status",
	"priority":    "priority",
	"severity":    "severity",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// ListParams holds the raw, optional list parameters as received.
// Empty strings mean "not given".
type ListParams struct {
	Status   string
	Priority string
	Severity string
	Search   string
	Sort     string
	Page     string
	Limit    string
}

// Plan is the resolved filter, ordering and window for a list call.
type Plan struct {
	Status   string
	Priority string
	Severity string
	Terms    []string

	SortField  string
	SortColumn string
	Desc       bool

	Page  int
	Limit int
	Skip  int
}

// BuildPlan validates params and resolves them into a Plan. Every invalid
// parameter is reported in the returned *ValidationError.
func BuildPlan(p ListParams) (Plan, error) {
	v := &ValidationError{}
	plan := Plan{Page: DefaultPage, Limit: DefaultLimit}

	if p.Status != "" {
		if models.IsStatus(p.Status) {
			plan.Status = p.Status
		} else {
			v.add("status", "Invalid status filter")
		}
	}
	if p.Priority != "" {
		if models.IsLevel(p.Priority) {
			plan.Priority = p.Priority
		} else {
			v.add("priority", "Invalid priority filter")
		}
	}
	if p.Severity != "" {
		if models.IsLevel(p.Severity) {
			plan.Severity = p.Severity
		} else {
			v.add("severity", "Invalid severity filter")
		}
	}

	plan.Terms = strings.Fields(p.Search)

	sort := strings.TrimSpace(p.Sort)
	if sort == "" {
		sort = DefaultSort
	}
	field := sort
	switch sort[0] {
	case '-':
		plan.Desc = true
		field = sort[1:]
	case '+':
		field = sort[1:]
	}
	if col, ok := sortColumns[field]; ok {
		plan.SortField = field
		plan.SortColumn = col
	} else {
		v.add("sort", "Invalid sort field")
	}

	if p.Limit != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.Limit))
		if err != nil || n < 1 || n > MaxLimit {
			v.add("limit", "Limit must be between 1 and 100")
		} else {
			plan.Limit = n
		}
	}
	if p.Page != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.Page))
		switch {
		case err != nil || n < 1:
			v.add("page", "Page must be a positive integer")
		case n-1 > math.MaxInt/plan.Limit:
			// Skip would overflow.
			v.add("page", "Page is out of range")
		default:
			plan.Page = n
		}
	}
	plan.Skip = (plan.Page - 1) * plan.Limit

	if err := v.err(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Order returns the ORDER BY clause. id breaks ties so pages never overlap.
func (p Plan) Order() string {
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	return p.SortColumn + " " + dir + ", id ASC"
}

// Pages returns the page count for total matching rows.
func (p Plan) Pages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// filter applies the plan's predicates (without ordering or window) to q.
func (p Plan) filter(q *gorm.DB) *gorm.DB {
	if p.Status != "" {
		q = q.Where("status = ?", p.Status)
	}
	if p.Priority != "" {
		q = q.Where("priority = ?", p.Priority)
	}
	if p.Severity != "" {
		q = q.Where("severity = ?", p.Severity)
	}
	if len(p.Terms) > 0 {
		var clauses []string
		var args []interface{}
		for _, t := range p.Terms {
			pat := "%" + escapeLike(strings.ToLower(t)) + "%"
			clauses = append(clauses, "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'")
			args = append(args, pat, pat)
		}
		q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return q
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
