package services

import (
	"context"
	"strings"
	"time"

	"achievement-review-api/models"

	"gorm.io/gorm"
)

// AchievementFilter is a conjunction of optional criteria. Zero values mean
// "no constraint". The caller's role may tighten OwnerID/InstitutionID, see
// ResolveScope.
type AchievementFilter struct {
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	OwnerID       int        `json:"owner_id"`
	InstitutionID int        `json:"institution_id"`
	DateField     string     `json:"date_field"` // achievement_date (default) or submission_date
	DateFrom      *time.Time `json:"date_from"`
	DateTo        *time.Time `json:"date_to"`
	Search        string     `json:"search"`
}

// SortOption names the sort column and direction.
type SortOption struct {
	Key string `json:"key"`
	Dir string `json:"dir"`
}

// PageRequest is 1-based pagination.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// safeSortKey maps a caller-supplied sort key onto a whitelisted column.
// Anything unrecognized falls back to submission_date.
func safeSortKey(s string) string {
	whitelist := map[string]string{
		"title":           "title",
		"category":        "category",
		"submission_date": "submission_date",
	}
	if col, ok := whitelist[strings.ToLower(strings.TrimSpace(s))]; ok {
		return col
	}
	return "submission_date"
}

func safeSortDir(s string) string {
	if strings.ToUpper(strings.TrimSpace(s)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// safeDateField picks which date column a range filter applies to.
func safeDateField(s string) string {
	if strings.ToLower(strings.TrimSpace(s)) == "submission_date" {
		return "submission_date"
	}
	return "achievement_date"
}

// NormalizePage clamps page and page size to sane bounds.
func NormalizePage(p PageRequest) PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// ResolveScope applies role-based visibility to a caller-supplied filter:
// students see only their own records, reviewers see their institution's
// cohort, and the oversight role sees everything (optionally narrowed to an
// institution it names).
func ResolveScope(caller Caller, f AchievementFilter) AchievementFilter {
	switch caller.RoleID {
	case models.RoleStudent:
		f.OwnerID = caller.UserID
		f.InstitutionID = 0
	case models.RoleReviewer:
		f.InstitutionID = caller.InstitutionID
	}
	return f
}

// QueryService answers listing and lookup requests over the record store.
// It never writes.
type QueryService struct {
	db *gorm.DB
}

func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

func (s *QueryService) apply(db *gorm.DB, f AchievementFilter) *gorm.DB {
	q := db.Model(&models.Achievement{})
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.InstitutionID != 0 {
		q = q.Where("institution_id = ?", f.InstitutionID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	dateField := safeDateField(f.DateField)
	if f.DateFrom != nil {
		q = q.Where(dateField+" >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where(dateField+" <= ?", *f.DateTo)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(issuer) LIKE ?", like, like, like)
	}
	return q
}

// List returns one page of achievements matching the caller-visible filter,
// plus the total match count. Ordering is stable across identical calls: the
// whitelisted sort key first, then achievement_id ascending as tie-break. An
// empty result set is a valid answer, not an error.
func (s *QueryService) List(ctx context.Context, caller Caller, f AchievementFilter, sort SortOption, page PageRequest) ([]models.Achievement, int64, error) {
	f = ResolveScope(caller, f)
	page = NormalizePage(page)

	db := s.db.WithContext(ctx)

	var total int64
	if err := s.apply(db, f).Count(&total).Error; err != nil {
		return nil, 0, &StorageError{Op: "count achievements", Err: err}
	}

	var records []models.Achievement
	err := s.apply(db, f).
		Order(safeSortKey(sort.Key) + " " + safeSortDir(sort.Dir)).
		Order("achievement_id ASC").
		Limit(page.PageSize).
		Offset((page.Page - 1) * page.PageSize).
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("display_order ASC")
		}).
		Find(&records).Error
	if err != nil {
		return nil, 0, &StorageError{Op: "list achievements", Err: err}
	}

	return records, total, nil
}

// Get fetches a single record subject to the caller's visibility scope.
func (s *QueryService) Get(ctx context.Context, caller Caller, achievementID int) (*models.Achievement, error) {
	f := ResolveScope(caller, AchievementFilter{})

	var record models.Achievement
	err := s.apply(s.db.WithContext(ctx), f).
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("display_order ASC")
		}).
		Where("achievement_id = ?", achievementID).
		First(&record).Error
	if err != nil {
		return nil, storageErr("load achievement", err)
	}
	return &record, nil
}

// Reviews returns the archived reviewer decisions for a record the caller
// can see, oldest cycle first.
func (s *QueryService) Reviews(ctx context.Context, caller Caller, achievementID int) ([]models.AchievementReview, error) {
	if _, err := s.Get(ctx, caller, achievementID); err != nil {
		return nil, err
	}

	var reviews []models.AchievementReview
	err := s.db.WithContext(ctx).
		Where("achievement_id = ?", achievementID).
		Order("review_cycle ASC").
		Order("reviewed_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, &StorageError{Op: "list reviews", Err: err}
	}
	return reviews, nil
}
