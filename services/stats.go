package services

import (
	"context"
	"sort"

	"achievement-review-api/models"

	"gorm.io/gorm"
)

// StatsScope narrows a summary to one owner or one institution. A zero
// scope covers the whole store.
type StatsScope struct {
	OwnerID       int `json:"owner_id"`
	InstitutionID int `json:"institution_id"`
}

// Statistics is the per-scope status breakdown.
type Statistics struct {
	Total              int64            `json:"total"`
	Approved           int64            `json:"approved"`
	Pending            int64            `json:"pending"`
	Rejected           int64            `json:"rejected"`
	NeedsRevision      int64            `json:"needs_revision"`
	CompletionPct      float64          `json:"completion_pct"`
	ApprovedByCategory map[string]int64 `json:"approved_by_category"`
}

// GoalProgress is one configured goal measured against approved records.
type GoalProgress struct {
	Category string  `json:"category"`
	Target   int     `json:"target"`
	Current  int64   `json:"current"`
	Progress float64 `json:"progress"`
	Complete bool    `json:"complete"`
}

// GoalSummary aggregates the configured goal set.
type GoalSummary struct {
	Goals           []GoalProgress `json:"goals"`
	OverallProgress float64        `json:"overall_progress"`
}

// CompletionPercentage is approved/total as a percentage, 0 for an empty set.
func CompletionPercentage(approved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(approved) / float64(total) * 100
}

// BuildGoalSummary measures approved-per-category counts against a
// caller-supplied goal table. Progress per goal is capped at 1.0 and the
// overall figure is the mean across configured goals only; categories in
// the data without a goal do not count. Targets below zero are clamped to
// zero, which makes the goal trivially complete.
func BuildGoalSummary(approvedByCategory map[string]int64, goals map[string]int) *GoalSummary {
	summary := &GoalSummary{Goals: make([]GoalProgress, 0, len(goals))}
	if len(goals) == 0 {
		return summary
	}

	categories := make([]string, 0, len(goals))
	for category := range goals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var sum float64
	for _, category := range categories {
		target := goals[category]
		if target < 0 {
			target = 0
		}
		current := approvedByCategory[category]
		progress := 1.0
		if target > 0 {
			progress = float64(current) / float64(target)
			if progress > 1 {
				progress = 1
			}
		}
		summary.Goals = append(summary.Goals, GoalProgress{
			Category: category,
			Target:   target,
			Current:  current,
			Progress: progress,
			Complete: current >= int64(target),
		})
		sum += progress
	}
	summary.OverallProgress = sum / float64(len(goals))
	return summary
}

// StatsService derives read-only statistics from the record store. Safe to
// run repeatedly and concurrently.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) scoped(db *gorm.DB, scope StatsScope) *gorm.DB {
	q := db.Model(&models.Achievement{})
	if scope.OwnerID != 0 {
		q = q.Where("owner_id = ?", scope.OwnerID)
	}
	if scope.InstitutionID != 0 {
		q = q.Where("institution_id = ?", scope.InstitutionID)
	}
	return q
}

// Summarize computes status counts, completion percentage, and the
// approved-per-category breakdown for the scope.
func (s *StatsService) Summarize(ctx context.Context, scope StatsScope) (*Statistics, error) {
	db := s.db.WithContext(ctx)

	var rows []struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	if err := s.scoped(db, scope).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, &StorageError{Op: "count by status", Err: err}
	}

	stats := &Statistics{ApprovedByCategory: make(map[string]int64)}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.StatusApproved:
			stats.Approved = row.Count
		case models.StatusPending:
			stats.Pending = row.Count
		case models.StatusRejected:
			stats.Rejected = row.Count
		case models.StatusNeedsRevision:
			stats.NeedsRevision = row.Count
		}
	}
	stats.CompletionPct = CompletionPercentage(stats.Approved, stats.Total)

	var catRows []struct {
		Category string `gorm:"column:category"`
		Count    int64  `gorm:"column:count"`
	}
	if err := s.scoped(db, scope).
		Select("category, COUNT(*) AS count").
		Where("status = ?", models.StatusApproved).
		Group("category").
		Scan(&catRows).Error; err != nil {
		return nil, &StorageError{Op: "count by category", Err: err}
	}
	for _, row := range catRows {
		stats.ApprovedByCategory[row.Category] = row.Count
	}

	return stats, nil
}

// GoalProgress measures the scope's approved records against a goal table.
func (s *StatsService) GoalProgress(ctx context.Context, scope StatsScope, goals map[string]int) (*GoalSummary, error) {
	stats, err := s.Summarize(ctx, scope)
	if err != nil {
		return nil, err
	}
	return BuildGoalSummary(stats.ApprovedByCategory, goals), nil
}
