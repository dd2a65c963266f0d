package models

import "time"

// Achievement statuses. Stored as strings in achievements.status.
const (
	StatusPending       = "pending"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusNeedsRevision = "needs_revision"
)

// Achievement categories.
const (
	CategoryAcademic        = "academic"
	CategoryResearch        = "research"
	CategoryExtracurricular = "extracurricular"
	CategorySports          = "sports"
	CategoryLeadership      = "leadership"
	CategoryTechnical       = "technical"
	CategoryInternship      = "internship"
	CategoryCertification   = "certification"
)

// Categories lists every valid achievement category.
var Categories = []string{
	CategoryAcademic,
	CategoryResearch,
	CategoryExtracurricular,
	CategorySports,
	CategoryLeadership,
	CategoryTechnical,
	CategoryInternship,
	CategoryCertification,
}

// IsValidCategory reports whether category is in the fixed enumeration.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether status is a known achievement status.
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsRevision:
		return true
	}
	return false
}

// Achievement represents a submitted accomplishment record.
type Achievement struct {
	AchievementID     int        `gorm:"primaryKey;column:achievement_id" json:"achievement_id"`
	AchievementNumber string     `gorm:"column:achievement_number;unique" json:"achievement_number"`
	OwnerID           int        `gorm:"column:owner_id" json:"owner_id"`
	InstitutionID     int        `gorm:"column:institution_id" json:"institution_id"`
	Title             string     `gorm:"column:title" json:"title"`
	Description       string     `gorm:"column:description" json:"description"`
	Issuer            string     `gorm:"column:issuer" json:"issuer"`
	Category          string     `gorm:"column:category" json:"category"`
	AchievementDate   time.Time  `gorm:"column:achievement_date" json:"achievement_date"`
	SubmissionDate    time.Time  `gorm:"column:submission_date" json:"submission_date"`
	Status            string     `gorm:"column:status" json:"status"`
	ReviewerID        *int       `gorm:"column:reviewer_id" json:"reviewer_id,omitempty"`
	ReviewDate        *time.Time `gorm:"column:review_date" json:"review_date,omitempty"`
	Feedback          *string    `gorm:"column:feedback" json:"feedback,omitempty"`
	ReviewCycle       int        `gorm:"column:review_cycle" json:"review_cycle"`
	Tags              string     `gorm:"column:tags" json:"tags"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Owner       *User                   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Reviewer    *User                   `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Attachments []AchievementAttachment `gorm:"foreignKey:AchievementID" json:"attachments"`
}

// Attachment content-type classes accepted by the submission policy.
const (
	AttachmentTypeImage = "image"
	AttachmentTypePDF   = "pdf"
	AttachmentTypeWord  = "word-document"
)

// MaxAttachments is the per-record attachment limit.
const MaxAttachments = 5

// MaxAttachmentSize is the per-file size limit (10 MiB).
const MaxAttachmentSize = 10 * 1024 * 1024

// AchievementAttachment is an opaque reference to an uploaded file. The
// engine validates metadata only and never touches the underlying bytes.
type AchievementAttachment struct {
	AttachmentID  int       `gorm:"primaryKey;column:attachment_id" json:"attachment_id"`
	AchievementID int       `gorm:"column:achievement_id" json:"achievement_id"`
	FileName      string    `gorm:"column:file_name" json:"file_name"`
	FileSize      int64     `gorm:"column:file_size" json:"file_size"`
	ContentType   string    `gorm:"column:content_type" json:"content_type"`
	StorageRef    string    `gorm:"column:storage_ref" json:"storage_ref"`
	DisplayOrder  int       `gorm:"column:display_order" json:"display_order"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

// IsValidContentType reports whether the declared content type is allowed.
func (a *AchievementAttachment) IsValidContentType() bool {
	switch a.ContentType {
	case AttachmentTypeImage, AttachmentTypePDF, AttachmentTypeWord:
		return true
	}
	return false
}

// GetFileSizeInMB returns the declared size in mebibytes.
func (a *AchievementAttachment) GetFileSizeInMB() float64 {
	return float64(a.FileSize) / (1024 * 1024)
}

// AchievementReview is the append-only audit record of a reviewer decision.
// One row per decision; resubmission never rewrites past rows.
type AchievementReview struct {
	ReviewID      int       `gorm:"primaryKey;column:review_id" json:"review_id"`
	AchievementID int       `gorm:"column:achievement_id" json:"achievement_id"`
	ReviewerID    int       `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewCycle   int       `gorm:"column:review_cycle" json:"review_cycle"`
	Decision      string    `gorm:"column:decision" json:"decision"`
	Feedback      *string   `gorm:"column:feedback" json:"feedback,omitempty"`
	ReviewedAt    time.Time `gorm:"column:reviewed_at" json:"reviewed_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// TableName overrides
func (Achievement) TableName() string {
	return "achievements"
}

func (AchievementAttachment) TableName() string {
	return "achievement_attachments"
}

func (AchievementReview) TableName() string {
	return "achievement_reviews"
}
