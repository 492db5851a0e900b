// Package report implements the in-memory filter, sort, and aggregation
// engine behind the dashboard tables and charts. Everything here is a pure
// function over a snapshot of requests: filter state is passed in explicitly
// and results are returned, never stored.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/roseyy14/project-monitoring/internal/model"

	"github.com/shopspring/decimal"
)

// Budget bucket bounds in pesos: small < 50k, medium 50k–500k inclusive,
// large > 500k.
var (
	budgetSmallMax = decimal.NewFromInt(50000)
	budgetLargeMin = decimal.NewFromInt(500000)
)

// Bucket filter values.
const (
	BudgetAll    = "all"
	BudgetSmall  = "small"
	BudgetMedium = "medium"
	BudgetLarge  = "large"
)

// Sort keys.
const (
	SortDateDesc   = "date-desc"
	SortDateAsc    = "date-asc"
	SortTitleAsc   = "title-asc"
	SortTitleDesc  = "title-desc"
	SortBudgetAsc  = "budget-asc"
	SortBudgetDesc = "budget-desc"
	SortStatusAsc  = "status-asc"
	SortStatusDesc = "status-desc"
)

// Filters is the explicit filter/sort configuration for a tabular view.
// The zero value (with Status/Location/Budget set to "all" by Normalize)
// passes every record and sorts newest first.
type Filters struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Status   string // all | approved | ongoing | completed | pending | rejected
	Location string // exact match, or "all"
	Budget   string // all | small | medium | large
	SortBy   string
}

// Normalize fills zero-value fields with their defaults.
func (f Filters) Normalize() Filters {
	if f.Status == "" {
		f.Status = "all"
	}
	if f.Location == "" {
		f.Location = "all"
	}
	if f.Budget == "" {
		f.Budget = BudgetAll
	}
	if f.SortBy == "" {
		f.SortBy = SortDateDesc
	}
	return f
}

// Apply filters and sorts a snapshot of requests. The input slice is not
// modified.
func Apply(reqs []model.Request, f Filters) []model.Request {
	f = f.Normalize()

	out := make([]model.Request, 0, len(reqs))
	for _, r := range reqs {
		if matches(&r, f) {
			out = append(out, r)
		}
	}
	sortRequests(out, f.SortBy)
	return out
}

func matches(r *model.Request, f Filters) bool {
	if f.DateFrom != nil || f.DateTo != nil {
		// A record with no timestamp fails an active date filter.
		if r.CreatedAt.IsZero() {
			return false
		}
		day := truncateToDay(r.CreatedAt)
		if f.DateFrom != nil && day.Before(truncateToDay(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && day.After(truncateToDay(*f.DateTo)) {
			return false
		}
	}

	if f.Status != "all" && !matchesStatus(r, f.Status) {
		return false
	}

	if f.Location != "all" && r.Location != f.Location {
		return false
	}

	if f.Budget != BudgetAll && !inBudgetBucket(r.BudgetOrZero(), f.Budget) {
		return false
	}

	return true
}

// matchesStatus compares a record against a status filter value. The status
// chart folds finished projects into its approved segment, so drilling into
// that segment must list them too: the "approved" filter matches both the
// approved and completed buckets, while "completed" still selects only
// finished projects.
func matchesStatus(r *model.Request, status string) bool {
	bucket := r.DisplayBucket()
	if status == string(model.BucketApproved) {
		return bucket == model.BucketApproved || bucket == model.BucketCompleted
	}
	return string(bucket) == status
}

func inBudgetBucket(budget decimal.Decimal, bucket string) bool {
	switch bucket {
	case BudgetSmall:
		return budget.LessThan(budgetSmallMax)
	case BudgetMedium:
		return budget.GreaterThanOrEqual(budgetSmallMax) && budget.LessThanOrEqual(budgetLargeMin)
	case BudgetLarge:
		return budget.GreaterThan(budgetLargeMin)
	default:
		return true
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sortRequests(reqs []model.Request, key string) {
	sort.SliceStable(reqs, func(i, j int) bool {
		a, b := &reqs[i], &reqs[j]
		switch key {
		case SortDateAsc:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortTitleAsc:
			return a.Title < b.Title
		case SortTitleDesc:
			return a.Title > b.Title
		case SortBudgetAsc:
			return a.BudgetOrZero().LessThan(b.BudgetOrZero())
		case SortBudgetDesc:
			return b.BudgetOrZero().LessThan(a.BudgetOrZero())
		case SortStatusAsc:
			return a.DisplayBucket() < b.DisplayBucket()
		case SortStatusDesc:
			return a.DisplayBucket() > b.DisplayBucket()
		default: // SortDateDesc
			return b.CreatedAt.Before(a.CreatedAt)
		}
	})
}

// StatusCounts holds the per-bucket project counts for the status chart.
// Approved includes finished projects; ongoing counts in-progress ones.
type StatusCounts struct {
	Approved int `json:"approved"`
	Ongoing  int `json:"ongoing"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// CategoryTotal is one slice of the budget-by-category doughnut.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// LocationCount is one bar of the requests-by-barangay chart.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// MonthTotal is one point of the spending timeline, keyed by "YYYY-MM".
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// Summary is the full set of chart aggregates for a snapshot.
type Summary struct {
	StatusCounts StatusCounts    `json:"status_counts"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Categories   []CategoryTotal `json:"categories"`
	Locations    []LocationCount `json:"locations"`
	Timeline     []MonthTotal    `json:"timeline"`
}

// Summarize computes all chart aggregates from a snapshot. Financial,
// category, and timeline aggregates draw from approved records only;
// rejected and pending records contribute to status and location counts.
func Summarize(reqs []model.Request) Summary {
	var s Summary
	s.TotalBudget = decimal.Zero
	s.TotalSpent = decimal.Zero

	categoryTotals := map[string]decimal.Decimal{}
	locationCounts := map[string]int{}
	monthTotals := map[string]decimal.Decimal{}

	for i := range reqs {
		r := &reqs[i]

		switch r.WorkflowStatus() {
		case model.StatusApproved:
			if r.ProjectStatus == model.ProjectInProgress {
				s.StatusCounts.Ongoing++
			} else {
				s.StatusCounts.Approved++
			}

			budget := r.BudgetOrZero()
			s.TotalBudget = s.TotalBudget.Add(budget)
			s.TotalSpent = s.TotalSpent.Add(r.AmountSpent)

			cat := NormalizeCategory(r.Category)
			categoryTotals[cat] = categoryTotals[cat].Add(budget)

			for _, e := range r.Expenses {
				if !e.Amount.IsPositive() {
					continue
				}
				key := monthKey(e.Date)
				if key == "" {
					continue
				}
				monthTotals[key] = monthTotals[key].Add(e.Amount)
			}

		case model.StatusRejected:
			s.StatusCounts.Rejected++
		default:
			s.StatusCounts.Pending++
		}

		loc := strings.TrimSpace(r.Location)
		if loc == "" {
			loc = "Unknown"
		}
		locationCounts[loc]++
	}

	s.Remaining = s.TotalBudget.Sub(s.TotalSpent)
	if s.Remaining.IsNegative() {
		s.Remaining = decimal.Zero
	}

	s.Categories = sortedCategories(categoryTotals)
	s.Locations = sortedLocations(locationCounts)
	s.Timeline = sortedMonths(monthTotals)
	return s
}

// NormalizeCategory formats a raw category key for display: underscores
// become spaces and the first letter is capitalized. Blank categories fall
// into "Other".
func NormalizeCategory(cat string) string {
	cat = strings.TrimSpace(cat)
	if cat == "" {
		return "Other"
	}
	cat = strings.ReplaceAll(cat, "_", " ")
	return strings.ToUpper(cat[:1]) + cat[1:]
}

// monthKey truncates an expense date string to its year-month bucket.
func monthKey(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

func sortedCategories(totals map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for c, t := range totals {
		out = append(out, CategoryTotal{Category: c, Total: t})
	}
	// Largest slice first, name as tiebreak for determinism.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[j].Total.LessThan(out[i].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func sortedLocations(counts map[string]int) []LocationCount {
	out := make([]LocationCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, LocationCount{Location: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

func sortedMonths(totals map[string]decimal.Decimal) []MonthTotal {
	out := make([]MonthTotal, 0, len(totals))
	for m, t := range totals {
		out = append(out, MonthTotal{Month: m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
