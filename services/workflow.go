package services

import (
	"context"
	"strings"
	"time"

	"achievement-review-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller is the authenticated identity every engine operation receives
// explicitly. The engine keeps no ambient session state.
type Caller struct {
	UserID        int
	RoleID        int
	InstitutionID int
	IP            string
}

// ReviewDecision values recorded in achievement_reviews.decision.
const (
	DecisionApprove         = models.StatusApproved
	DecisionReject          = models.StatusRejected
	DecisionRequestRevision = models.StatusNeedsRevision
)

type transitionKey struct {
	from string
	to   string
}

// transitionActors is the complete transition table: each legal (from, to)
// pair and the role allowed to trigger it. Everything else is rejected.
// `approved` is terminal and appears in no key's from position.
var transitionActors = map[transitionKey]int{
	{models.StatusPending, models.StatusApproved}:      models.RoleReviewer,
	{models.StatusPending, models.StatusRejected}:      models.RoleReviewer,
	{models.StatusPending, models.StatusNeedsRevision}: models.RoleReviewer,
	{models.StatusRejected, models.StatusPending}:      models.RoleStudent,
	{models.StatusNeedsRevision, models.StatusPending}: models.RoleStudent,
}

// CanTransition checks the transition table for the (from, to, role) triple.
// It covers legality and actor role only; content preconditions (feedback,
// attachments) are checked by the operation applying the transition.
func CanTransition(from, to string, roleID int) *TransitionError {
	actor, ok := transitionActors[transitionKey{from: from, to: to}]
	if !ok {
		terr := &TransitionError{From: from, To: to}
		if from == models.StatusApproved {
			terr.Reason = "record is approved and can no longer change"
		}
		return terr
	}
	if actor != roleID {
		return &TransitionError{From: from, To: to, Reason: "caller role may not perform this transition"}
	}
	return nil
}

// WorkflowService owns the achievement lifecycle: creation, reviewer
// decisions, and owner resubmission.
type WorkflowService struct {
	db *gorm.DB
}

func NewWorkflowService(db *gorm.DB) *WorkflowService {
	return &WorkflowService{db: db}
}

func generateAchievementNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "ACH-" + raw[:12]
}

// Create validates a draft and stores it as a new pending achievement owned
// by the caller.
func (s *WorkflowService) Create(ctx context.Context, caller Caller, in SubmissionInput) (*models.Achievement, error) {
	now := time.Now()
	if errs := ValidateSubmission(in, now); len(errs) > 0 {
		return nil, errs
	}

	record := models.Achievement{
		AchievementNumber: generateAchievementNumber(),
		OwnerID:           caller.UserID,
		InstitutionID:     caller.InstitutionID,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Issuer:            strings.TrimSpace(in.Issuer),
		Category:          in.Category,
		AchievementDate:   in.AchievementDate,
		SubmissionDate:    now,
		Status:            models.StatusPending,
		ReviewCycle:       1,
		Tags:              JoinTags(in.Tags),
		UpdatedAt:         now,
	}

	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return &StorageError{Op: "create achievement", Err: err}
		}
		for i, att := range in.Attachments {
			row := models.AchievementAttachment{
				AchievementID: record.AchievementID,
				FileName:      strings.TrimSpace(att.FileName),
				FileSize:      att.FileSize,
				ContentType:   att.ContentType,
				StorageRef:    att.StorageRef,
				DisplayOrder:  i + 1,
				CreatedAt:     now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return &StorageError{Op: "create attachment", Err: err}
			}
			record.Attachments = append(record.Attachments, row)
		}
		return s.writeAudit(tx, caller, "create", &record, nil, now)
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Review applies a reviewer decision (approve, reject, request revision) to
// a pending record. The status update is guarded on the status read at load
// time, so concurrent decisions on the same record cannot both win.
func (s *WorkflowService) Review(ctx context.Context, caller Caller, achievementID int, target, feedback string) (*models.Achievement, error) {
	feedback = strings.TrimSpace(feedback)
	if !models.IsValidStatus(target) || target == models.StatusPending {
		return nil, &TransitionError{AchievementID: achievementID, To: target, Reason: "unknown review decision"}
	}

	db := s.db.WithContext(ctx)

	var record models.Achievement
	if err := db.Where("achievement_id = ?", achievementID).First(&record).Error; err != nil {
		return nil, storageErr("load achievement", err)
	}
	if caller.RoleID == models.RoleReviewer && record.InstitutionID != caller.InstitutionID {
		// Records outside the reviewer's cohort are invisible.
		return nil, ErrNotFound
	}

	if terr := CanTransition(record.Status, target, caller.RoleID); terr != nil {
		terr.AchievementID = achievementID
		return nil, terr
	}
	if feedback == "" && (target == models.StatusRejected || target == models.StatusNeedsRevision) {
		return nil, ValidationErrors{{Field: "feedback", Reason: "feedback is required for this decision"}}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      target,
		"reviewer_id": caller.UserID,
		"review_date": now,
		"updated_at":  now,
	}
	if feedback != "" {
		updates["feedback"] = feedback
	} else {
		updates["feedback"] = nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Achievement{}).
			Where("achievement_id = ? AND status = ?", achievementID, record.Status).
			Updates(updates)
		if res.Error != nil {
			return &StorageError{Op: "update achievement status", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			// The record moved between our read and the guarded write.
			return &TransitionError{
				AchievementID: achievementID,
				From:          record.Status,
				To:            target,
				Reason:        "record changed during review",
				Conflict:      true,
			}
		}

		review := models.AchievementReview{
			AchievementID: achievementID,
			ReviewerID:    caller.UserID,
			ReviewCycle:   record.ReviewCycle,
			Decision:      target,
			ReviewedAt:    now,
		}
		if feedback != "" {
			review.Feedback = &feedback
		}
		if err := tx.Create(&review).Error; err != nil {
			return &StorageError{Op: "record review", Err: err}
		}

		return s.writeAudit(tx, caller, target, &record, review.Feedback, now)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(db, achievementID)
}

// ResubmissionInput carries the owner's corrections. Nil content fields keep
// the stored value; new attachments are appended to the existing set.
type ResubmissionInput struct {
	Title           *string           `json:"title"`
	Description     *string           `json:"description"`
	Issuer          *string           `json:"issuer"`
	Category        *string           `json:"category"`
	AchievementDate *time.Time        `json:"achievement_date"`
	Tags            []string          `json:"tags"`
	NewAttachments  []AttachmentInput `json:"new_attachments"`
}

// Resubmit moves a rejected or needs_revision record back to pending under
// its owner. Prior feedback is cleared from the record; the review history
// rows are untouched.
func (s *WorkflowService) Resubmit(ctx context.Context, caller Caller, achievementID int, in ResubmissionInput) (*models.Achievement, error) {
	db := s.db.WithContext(ctx)

	var record models.Achievement
	if err := db.Preload("Attachments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("display_order ASC")
	}).Where("achievement_id = ?", achievementID).First(&record).Error; err != nil {
		return nil, storageErr("load achievement", err)
	}
	if record.OwnerID != caller.UserID {
		// Students only ever see their own records.
		return nil, ErrNotFound
	}

	if terr := CanTransition(record.Status, models.StatusPending, caller.RoleID); terr != nil {
		terr.AchievementID = achievementID
		return nil, terr
	}

	switch record.Status {
	case models.StatusNeedsRevision:
		if len(in.NewAttachments) == 0 {
			return nil, &TransitionError{
				AchievementID: achievementID,
				From:          record.Status,
				To:            models.StatusPending,
				Reason:        "resubmission must add at least one new attachment",
			}
		}
	case models.StatusRejected:
		if len(record.Attachments)+len(in.NewAttachments) == 0 {
			return nil, &TransitionError{
				AchievementID: achievementID,
				From:          record.Status,
				To:            models.StatusPending,
				Reason:        "resubmission must carry at least one attachment",
			}
		}
	}

	merged := s.mergeContent(&record, in)
	if errs := ValidateSubmission(merged, time.Now()); len(errs) > 0 {
		return nil, errs
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           models.StatusPending,
		"title":            strings.TrimSpace(merged.Title),
		"description":      strings.TrimSpace(merged.Description),
		"issuer":           strings.TrimSpace(merged.Issuer),
		"category":         merged.Category,
		"achievement_date": merged.AchievementDate,
		"tags":             JoinTags(merged.Tags),
		"reviewer_id":      nil,
		"review_date":      nil,
		"feedback":         nil,
		"review_cycle":     record.ReviewCycle + 1,
		"updated_at":       now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Achievement{}).
			Where("achievement_id = ? AND status = ?", achievementID, record.Status).
			Updates(updates)
		if res.Error != nil {
			return &StorageError{Op: "resubmit achievement", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				AchievementID: achievementID,
				From:          record.Status,
				To:            models.StatusPending,
				Reason:        "record changed during resubmission",
				Conflict:      true,
			}
		}

		order := nextDisplayOrder(record.Attachments)
		for _, att := range in.NewAttachments {
			row := models.AchievementAttachment{
				AchievementID: achievementID,
				FileName:      strings.TrimSpace(att.FileName),
				FileSize:      att.FileSize,
				ContentType:   att.ContentType,
				StorageRef:    att.StorageRef,
				DisplayOrder:  order,
				CreatedAt:     now,
			}
			order++
			if err := tx.Create(&row).Error; err != nil {
				return &StorageError{Op: "create attachment", Err: err}
			}
		}

		return s.writeAudit(tx, caller, "resubmit", &record, nil, now)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(db, achievementID)
}

// mergeContent overlays the resubmission fields onto the stored record and
// folds the new attachment metadata in, so the merged result can be run
// through the same validation as a fresh submission.
func (s *WorkflowService) mergeContent(record *models.Achievement, in ResubmissionInput) SubmissionInput {
	merged := SubmissionInput{
		Title:           record.Title,
		Description:     record.Description,
		Issuer:          record.Issuer,
		Category:        record.Category,
		AchievementDate: record.AchievementDate,
		Tags:            SplitTags(record.Tags),
	}
	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.Description != nil {
		merged.Description = *in.Description
	}
	if in.Issuer != nil {
		merged.Issuer = *in.Issuer
	}
	if in.Category != nil {
		merged.Category = *in.Category
	}
	if in.AchievementDate != nil {
		merged.AchievementDate = *in.AchievementDate
	}
	if in.Tags != nil {
		merged.Tags = in.Tags
	}
	for _, att := range record.Attachments {
		merged.Attachments = append(merged.Attachments, AttachmentInput{
			FileName:    att.FileName,
			FileSize:    att.FileSize,
			ContentType: att.ContentType,
			StorageRef:  att.StorageRef,
		})
	}
	merged.Attachments = append(merged.Attachments, in.NewAttachments...)
	return merged
}

func nextDisplayOrder(existing []models.AchievementAttachment) int {
	max := 0
	for _, att := range existing {
		if att.DisplayOrder > max {
			max = att.DisplayOrder
		}
	}
	return max + 1
}

func (s *WorkflowService) writeAudit(tx *gorm.DB, caller Caller, action string, record *models.Achievement, description *string, now time.Time) error {
	entry := models.AuditLog{
		UserID:       caller.UserID,
		Action:       action,
		EntityType:   "achievement",
		EntityID:     &record.AchievementID,
		EntityNumber: &record.AchievementNumber,
		Description:  description,
		IPAddress:    caller.IP,
		CreatedAt:    now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return &StorageError{Op: "record audit log", Err: err}
	}
	return nil
}

func (s *WorkflowService) reload(db *gorm.DB, achievementID int) (*models.Achievement, error) {
	var record models.Achievement
	if err := db.Preload("Attachments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("display_order ASC")
	}).Where("achievement_id = ?", achievementID).First(&record).Error; err != nil {
		return nil, storageErr("reload achievement", err)
	}
	return &record, nil
}
