package files

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// UpsertFile writes a registry row, replacing any previous result for the
// same content hash.
func (r *Repo) UpsertFile(ctx context.Context, f *File) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(f).Error
}

func (r *Repo) GetFile(ctx context.Context, id string) (*File, error) {
	var f File
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repo) CreateJob(ctx context.Context, job *ExtractionJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*ExtractionJob, error) {
	var j ExtractionJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&ExtractionJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

// MarkJobSucceeded finishes the job and drops the payload, which is dead
// weight once the text is in the file row.
func (r *Repo) MarkJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&ExtractionJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  JobSucceeded,
			"payload": nil,
			"error":   nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&ExtractionJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  JobFailed,
			"payload": nil,
			"error":   errMsg,
		}).Error
}
