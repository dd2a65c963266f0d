package services

import (
	"fmt"
	"strings"
	"time"

	"achievement-review-api/models"
)

// AttachmentInput is the opaque reference supplied by the external upload
// service. Only the declared metadata is checked here.
type AttachmentInput struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	StorageRef  string `json:"storage_ref"`
}

// SubmissionInput carries the content of a new or resubmitted achievement.
type SubmissionInput struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Issuer          string            `json:"issuer"`
	Category        string            `json:"category"`
	AchievementDate time.Time         `json:"achievement_date"`
	Tags            []string          `json:"tags"`
	Attachments     []AttachmentInput `json:"attachments"`
}

// ValidateSubmission runs every structural and attachment-policy check and
// returns the full list of failures. It is pure: no reads, no writes. A nil
// result means the submission is acceptable.
func ValidateSubmission(in SubmissionInput, now time.Time) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Reason: "title is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, FieldError{Field: "description", Reason: "description is required"})
	}

	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, FieldError{Field: "category", Reason: "category is required"})
	} else if !models.IsValidCategory(in.Category) {
		errs = append(errs, FieldError{
			Field:  "category",
			Reason: fmt.Sprintf("unknown category '%s'", in.Category),
		})
	}

	if in.AchievementDate.IsZero() {
		errs = append(errs, FieldError{Field: "achievement_date", Reason: "achievement date is required"})
	} else if in.AchievementDate.After(now) {
		errs = append(errs, FieldError{Field: "achievement_date", Reason: "achievement date cannot be in the future"})
	}

	if len(in.Attachments) > models.MaxAttachments {
		errs = append(errs, FieldError{
			Field:  "attachments",
			Reason: fmt.Sprintf("too many attachments: %d (maximum %d)", len(in.Attachments), models.MaxAttachments),
		})
	}

	// Violating attachments are reported individually rather than aborting
	// the whole batch.
	for i, att := range in.Attachments {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			name = fmt.Sprintf("attachment %d", i+1)
		}
		ref := models.AchievementAttachment{ContentType: att.ContentType, FileSize: att.FileSize}
		if !ref.IsValidContentType() {
			errs = append(errs, FieldError{
				Field:  fmt.Sprintf("attachments[%d]", i),
				Reason: fmt.Sprintf("file %s has unsupported type '%s'", name, att.ContentType),
			})
		}
		if att.FileSize > models.MaxAttachmentSize {
			errs = append(errs, FieldError{
				Field:  fmt.Sprintf("attachments[%d]", i),
				Reason: fmt.Sprintf("file %s exceeds size limit (%.1f MB > 10 MB)", name, ref.GetFileSizeInMB()),
			})
		}
		if att.FileSize <= 0 {
			errs = append(errs, FieldError{
				Field:  fmt.Sprintf("attachments[%d]", i),
				Reason: fmt.Sprintf("file %s has no declared size", name),
			})
		}
	}

	return errs
}

// NormalizeTags trims, lowercases, and deduplicates the tag set, preserving
// first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// JoinTags flattens a normalized tag set into its stored form.
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}

// SplitTags is the inverse of JoinTags.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
