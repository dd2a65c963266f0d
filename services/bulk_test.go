package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"achievement-review-api/models"
)

type fakeApplier struct {
	calls  []int
	fail   map[int]error
	cancel context.CancelFunc
	after  int // cancel after this many calls, if cancel is set
}

func (f *fakeApplier) Review(ctx context.Context, caller Caller, achievementID int, target, feedback string) (*models.Achievement, error) {
	f.calls = append(f.calls, achievementID)
	if f.cancel != nil && len(f.calls) == f.after {
		f.cancel()
	}
	if err, ok := f.fail[achievementID]; ok {
		return nil, err
	}
	return &models.Achievement{AchievementID: achievementID, Status: target}, nil
}

type fakeReader struct {
	records map[int]*models.Achievement
}

func (f *fakeReader) Get(ctx context.Context, caller Caller, achievementID int) (*models.Achievement, error) {
	record, ok := f.records[achievementID]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

func TestBulkApplyReportsEveryIDExactlyOnce(t *testing.T) {
	applier := &fakeApplier{fail: map[int]error{
		2: &TransitionError{AchievementID: 2, From: models.StatusApproved, To: models.StatusApproved, Reason: "already approved"},
	}}
	svc := &BulkService{workflow: applier}
	caller := Caller{UserID: 99, RoleID: models.RoleReviewer, InstitutionID: 7}

	result, err := svc.Apply(context.Background(), caller, BulkActionApprove, []int{1, 2, 3}, "")
	if err != nil {
		t.Fatalf("partial failure must not surface as an error: %v", err)
	}

	if len(result.Succeeded) != 2 || result.Succeeded[0] != 1 || result.Succeeded[1] != 3 {
		t.Fatalf("expected 1 and 3 to succeed, got %v", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].AchievementID != 2 {
		t.Fatalf("expected only 2 to fail, got %+v", result.Failed)
	}
	if !strings.Contains(result.Failed[0].Reason, "already approved") {
		t.Fatalf("failure should carry the underlying reason, got %q", result.Failed[0].Reason)
	}
	if len(applier.calls) != 3 {
		t.Fatalf("one failure must not abort the rest, calls: %v", applier.calls)
	}
}

func TestBulkApplyUnknownAction(t *testing.T) {
	svc := &BulkService{workflow: &fakeApplier{}}

	_, err := svc.Apply(context.Background(), Caller{}, "archive", []int{1}, "")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verrs) != 1 || verrs[0].Field != "action" {
		t.Fatalf("unexpected validation detail: %+v", verrs)
	}
}

func TestBulkApplyCancellationKeepsAppliedResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	applier := &fakeApplier{cancel: cancel, after: 2}
	svc := &BulkService{workflow: applier}

	result, err := svc.Apply(ctx, Caller{RoleID: models.RoleReviewer}, BulkActionReject, []int{1, 2, 3, 4}, "incomplete")
	if err != nil {
		t.Fatalf("cancellation must not surface as an error: %v", err)
	}

	if len(result.Succeeded) != 2 {
		t.Fatalf("records applied before cancellation must stay applied, got %v", result.Succeeded)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("unprocessed records must be reported as failed, got %+v", result.Failed)
	}
	for _, f := range result.Failed {
		if !strings.Contains(f.Reason, "canceled") {
			t.Fatalf("cancellation failures should say so, got %q", f.Reason)
		}
	}
	if len(applier.calls) != 2 {
		t.Fatalf("no record may be processed after cancellation, calls: %v", applier.calls)
	}
}

func TestResolveExportFieldsEmptyMaskSelectsAll(t *testing.T) {
	fields, errs := resolveExportFields(nil)
	if len(errs) != 0 {
		t.Fatalf("empty mask is valid, got %+v", errs)
	}
	if len(fields) != len(exportableFields) {
		t.Fatalf("expected all %d fields, got %v", len(exportableFields), fields)
	}
}

func TestResolveExportFieldsKeepsCanonicalOrder(t *testing.T) {
	fields, errs := resolveExportFields([]string{"status", "title", "achievement_id"})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %+v", errs)
	}
	want := []string{"achievement_id", "title", "status"}
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("mask order must not override column order, got %v", fields)
		}
	}
}

func TestResolveExportFieldsRejectsUnknown(t *testing.T) {
	_, errs := resolveExportFields([]string{"title", "password", "ssn"})
	if len(errs) != 2 {
		t.Fatalf("every unknown field must be reported, got %+v", errs)
	}
}

func TestExportProjectsReadableRecordsAndReportsTheRest(t *testing.T) {
	reader := &fakeReader{records: map[int]*models.Achievement{
		1: {AchievementID: 1, Title: "Science fair winner", Status: models.StatusApproved, Tags: "science,fair"},
		3: {AchievementID: 3, Title: "Debate finalist", Status: models.StatusPending},
	}}
	svc := &BulkService{reader: reader}

	result, err := svc.Export(context.Background(), Caller{RoleID: models.RoleGovernment}, ExportRequest{
		IDs:    []int{1, 2, 3},
		Fields: []string{"achievement_id", "title", "tags", "attachment_count"},
		Format: "csv",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Format != "csv" {
		t.Fatalf("format must be echoed back, got %q", result.Format)
	}
	if len(result.Rows) != 2 || len(result.Failed) != 1 {
		t.Fatalf("expected 2 rows and 1 failure, got %+v", result)
	}
	if result.Failed[0].AchievementID != 2 {
		t.Fatalf("the unreadable id must be the one reported, got %+v", result.Failed)
	}

	first := result.Rows[0]
	if first["achievement_id"] != 1 || first["title"] != "Science fair winner" {
		t.Fatalf("unexpected projection: %+v", first)
	}
	if _, present := first["status"]; present {
		t.Fatalf("unselected fields must not leak into rows: %+v", first)
	}
	tags, ok := first["tags"].([]string)
	if !ok || len(tags) != 2 || tags[0] != "science" {
		t.Fatalf("tags should export as a list, got %+v", first["tags"])
	}
	if first["attachment_count"] != 0 {
		t.Fatalf("attachment count should default to 0, got %v", first["attachment_count"])
	}
}
