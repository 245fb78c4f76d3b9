package files

import (
	"context"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/docuchat/gateway/internal/extract"
)

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) PublishJob(ctx context.Context, jobID string) error {
	_ = ctx
	p.published = append(p.published, jobID)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&File{}, &ExtractionJob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, pub Publisher) (*Service, *Repo) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	return NewService(repo, extract.New(nil), pub, zerolog.Nop()), repo
}

func TestProcessBatch_TextFiles(t *testing.T) {
	svc, repo := newTestService(t, nil)

	results := svc.ProcessBatch(context.Background(), []Upload{
		{Name: "a.txt", MimeType: "text/plain", Data: []byte("alpha")},
		{Name: "b.txt", MimeType: "text/plain", Data: []byte("beta")},
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].FileName != "a.txt" || results[0].ExtractedText != "alpha" {
		t.Fatalf("results out of input order: %+v", results[0])
	}
	if results[0].Status != string(FileProcessed) || results[0].Text != "Text File" {
		t.Fatalf("unexpected result: %+v", results[0])
	}

	f, err := repo.GetFile(context.Background(), results[0].FileID)
	if err != nil {
		t.Fatalf("registry row missing: %v", err)
	}
	if f.ExtractedText != "alpha" || f.Status != FileProcessed {
		t.Fatalf("unexpected registry row: %+v", f)
	}
}

func TestProcessBatch_OneBadFileDoesNotAbortBatch(t *testing.T) {
	svc, _ := newTestService(t, nil)

	results := svc.ProcessBatch(context.Background(), []Upload{
		{Name: "ok.txt", MimeType: "text/plain", Data: []byte("fine")},
		{Name: "weird.bin", MimeType: "application/octet-stream", Data: []byte{0x00}},
		{Name: "also-ok.txt", MimeType: "text/plain", Data: []byte("fine too")},
	})

	if results[0].Status != string(FileProcessed) || results[2].Status != string(FileProcessed) {
		t.Fatalf("good files must still process: %+v", results)
	}
	if results[1].Status != string(FileUnsupported) {
		t.Fatalf("expected unsupported status, got %+v", results[1])
	}
	if results[1].Error == "" {
		t.Fatalf("failed result should carry an error message")
	}
}

func TestEnqueueAndRunJob(t *testing.T) {
	pub := &recordingPublisher{}
	svc, repo := newTestService(t, pub)
	ctx := context.Background()

	jobID, fileID, err := svc.EnqueueExtraction(ctx, Upload{
		Name: "doc.txt", MimeType: "text/plain", Data: []byte("queued text"),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != jobID {
		t.Fatalf("job not published: %v", pub.published)
	}

	f, err := repo.GetFile(ctx, fileID)
	if err != nil {
		t.Fatalf("file row: %v", err)
	}
	if f.Status != FileQueued {
		t.Fatalf("expected queued file, got %s", f.Status)
	}

	if err := svc.RunJob(ctx, jobID); err != nil {
		t.Fatalf("run job: %v", err)
	}

	j, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		t.Fatalf("job row: %v", err)
	}
	if j.Status != JobSucceeded {
		t.Fatalf("expected succeeded job, got %s", j.Status)
	}
	if len(j.Payload) != 0 {
		t.Fatalf("payload should be dropped after success")
	}

	f, err = repo.GetFile(ctx, fileID)
	if err != nil {
		t.Fatalf("file row after job: %v", err)
	}
	if f.Status != FileProcessed || f.ExtractedText != "queued text" {
		t.Fatalf("unexpected file row: %+v", f)
	}
}

func TestRunJob_FailureMarksJobAndFile(t *testing.T) {
	pub := &recordingPublisher{}
	svc, repo := newTestService(t, pub)
	ctx := context.Background()

	jobID, fileID, err := svc.EnqueueExtraction(ctx, Upload{
		Name: "blob.bin", MimeType: "application/octet-stream", Data: []byte{0x01},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.RunJob(ctx, jobID); err == nil {
		t.Fatalf("expected job failure")
	}

	j, _ := repo.GetJobByID(ctx, jobID)
	if j.Status != JobFailed || j.Error == nil {
		t.Fatalf("unexpected job row: %+v", j)
	}
	f, _ := repo.GetFile(ctx, fileID)
	if f.Status != FileUnsupported {
		t.Fatalf("unexpected file status: %s", f.Status)
	}
}

func TestEnqueueWithoutPublisher(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, _, err := svc.EnqueueExtraction(context.Background(), Upload{Name: "x", MimeType: "text/plain", Data: []byte("y")}); err == nil {
		t.Fatalf("expected error when async path is not configured")
	}
}
