package services

import (
	"context"
	"fmt"

	"achievement-review-api/models"
)

// Bulk actions accepted by Apply.
const (
	BulkActionApprove         = "approve"
	BulkActionReject          = "reject"
	BulkActionRequestRevision = "request_revision"
)

var bulkActionTargets = map[string]string{
	BulkActionApprove:         models.StatusApproved,
	BulkActionReject:          models.StatusRejected,
	BulkActionRequestRevision: models.StatusNeedsRevision,
}

// BulkFailure reports why one record in a selection could not be processed.
type BulkFailure struct {
	AchievementID int    `json:"achievement_id"`
	Reason        string `json:"reason"`
}

// BulkResult reports every input id exactly once, as succeeded or failed.
// Partial failure is the normal return shape, not an error.
type BulkResult struct {
	Succeeded []int         `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

type reviewApplier interface {
	Review(ctx context.Context, caller Caller, achievementID int, target, feedback string) (*models.Achievement, error)
}

type recordReader interface {
	Get(ctx context.Context, caller Caller, achievementID int) (*models.Achievement, error)
}

// BulkService applies an action to a selection set record by record. The
// all-or-nothing unit is each individual record, never the batch.
type BulkService struct {
	workflow reviewApplier
	reader   recordReader
}

func NewBulkService(workflow *WorkflowService, query *QueryService) *BulkService {
	return &BulkService{workflow: workflow, reader: query}
}

// Apply runs the named review action over ids independently. One record's
// failure never aborts the rest; cancellation keeps already-applied results
// and reports the remainder as failed.
func (s *BulkService) Apply(ctx context.Context, caller Caller, action string, ids []int, feedback string) (*BulkResult, error) {
	target, ok := bulkActionTargets[action]
	if !ok {
		return nil, ValidationErrors{{Field: "action", Reason: fmt.Sprintf("unknown bulk action '%s'", action)}}
	}

	result := &BulkResult{Succeeded: []int{}, Failed: []BulkFailure{}}
	canceled := false
	for _, id := range ids {
		if canceled || ctx.Err() != nil {
			canceled = true
			result.Failed = append(result.Failed, BulkFailure{
				AchievementID: id,
				Reason:        "bulk operation canceled before this record was processed",
			})
			continue
		}
		if _, err := s.workflow.Review(ctx, caller, id, target, feedback); err != nil {
			result.Failed = append(result.Failed, BulkFailure{AchievementID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

// exportableFields is the full attribute set a field mask may select, in
// output column order.
var exportableFields = []string{
	"achievement_id",
	"achievement_number",
	"owner_id",
	"institution_id",
	"title",
	"description",
	"issuer",
	"category",
	"achievement_date",
	"submission_date",
	"status",
	"reviewer_id",
	"review_date",
	"feedback",
	"review_cycle",
	"tags",
	"attachment_count",
}

// ExportRequest selects records and shapes their rows. Format is an opaque
// tag echoed back to the caller; the engine never encodes files.
type ExportRequest struct {
	IDs    []int    `json:"ids"`
	Fields []string `json:"fields"`
	Format string   `json:"format"`
}

// ExportResult carries shaped rows plus the per-id failures, mirroring
// BulkResult's exactly-once accounting.
type ExportResult struct {
	Format  string           `json:"format"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Failed  []BulkFailure    `json:"failed"`
}

// resolveExportFields validates a field mask against the exportable set,
// keeping canonical column order. An empty mask selects everything.
func resolveExportFields(mask []string) ([]string, ValidationErrors) {
	if len(mask) == 0 {
		out := make([]string, len(exportableFields))
		copy(out, exportableFields)
		return out, nil
	}

	allowed := make(map[string]bool, len(exportableFields))
	for _, f := range exportableFields {
		allowed[f] = true
	}

	var errs ValidationErrors
	selected := make(map[string]bool, len(mask))
	for _, f := range mask {
		if !allowed[f] {
			errs = append(errs, FieldError{Field: "fields", Reason: fmt.Sprintf("unknown export field '%s'", f)})
			continue
		}
		selected[f] = true
	}
	if len(errs) > 0 {
		return nil, errs
	}

	out := make([]string, 0, len(selected))
	for _, f := range exportableFields {
		if selected[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

func projectAchievement(a *models.Achievement, fields []string) map[string]any {
	row := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "achievement_id":
			row[f] = a.AchievementID
		case "achievement_number":
			row[f] = a.AchievementNumber
		case "owner_id":
			row[f] = a.OwnerID
		case "institution_id":
			row[f] = a.InstitutionID
		case "title":
			row[f] = a.Title
		case "description":
			row[f] = a.Description
		case "issuer":
			row[f] = a.Issuer
		case "category":
			row[f] = a.Category
		case "achievement_date":
			row[f] = a.AchievementDate
		case "submission_date":
			row[f] = a.SubmissionDate
		case "status":
			row[f] = a.Status
		case "reviewer_id":
			row[f] = a.ReviewerID
		case "review_date":
			row[f] = a.ReviewDate
		case "feedback":
			row[f] = a.Feedback
		case "review_cycle":
			row[f] = a.ReviewCycle
		case "tags":
			row[f] = SplitTags(a.Tags)
		case "attachment_count":
			row[f] = len(a.Attachments)
		}
	}
	return row
}

// Export reads the selected records through the caller's visibility scope
// and shapes one row per readable id under the field mask.
func (s *BulkService) Export(ctx context.Context, caller Caller, req ExportRequest) (*ExportResult, error) {
	fields, errs := resolveExportFields(req.Fields)
	if len(errs) > 0 {
		return nil, errs
	}

	result := &ExportResult{
		Format:  req.Format,
		Columns: fields,
		Rows:    []map[string]any{},
		Failed:  []BulkFailure{},
	}
	for _, id := range req.IDs {
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, BulkFailure{
				AchievementID: id,
				Reason:        "export canceled before this record was processed",
			})
			continue
		}
		record, err := s.reader.Get(ctx, caller, id)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{AchievementID: id, Reason: err.Error()})
			continue
		}
		result.Rows = append(result.Rows, projectAchievement(record, fields))
	}
	return result, nil
}
