package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stitts-dev/fight-edge/pkg/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("analysis run not found")

// RunPayload is the JSON document stored per run.
type RunPayload struct {
	Summaries  []models.EdgeSummary    `json:"summaries"`
	Breakdowns []models.FightBreakdown `json:"breakdowns"`
}

// AnalysisRunRecord is the analysis_runs row. TopBet and BetCount are copied
// out of the payload so history listings do not decode it.
type AnalysisRunRecord struct {
	ID        string                        `gorm:"primaryKey;size:36"`
	OwnerID   string                        `gorm:"size:128;not null;index:idx_analysis_runs_owner_created,priority:1"`
	Title     string                        `gorm:"size:255;not null"`
	EventID   string                        `gorm:"size:128"`
	Result    datatypes.JSONType[RunPayload] `gorm:"not null"`
	TopBet    string                        `gorm:"size:255"`
	BetCount  int                           `gorm:"not null;default:0"`
	CreatedAt time.Time                     `gorm:"not null;index:idx_analysis_runs_owner_created,priority:2"`
}

func (AnalysisRunRecord) TableName() string {
	return "analysis_runs"
}

// RunSummary is the history metadata derived from a run before it is saved.
type RunSummary struct {
	TopBet   string
	BetCount int
}

type RunRepository struct {
	db *database.DB
}

func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

func Migrate(db *database.DB) error {
	if err := db.AutoMigrate(&AnalysisRunRecord{}); err != nil {
		return fmt.Errorf("failed to migrate analysis_runs: %w", err)
	}
	return nil
}

func Rollback(db *database.DB) error {
	return db.Migrator().DropTable(&AnalysisRunRecord{})
}

// Save writes a finished run in a single insert.
func (r *RunRepository) Save(ctx context.Context, run models.AnalysisRun, summary RunSummary) error {
	record := AnalysisRunRecord{
		ID:      run.ID,
		OwnerID: run.OwnerID,
		Title:   run.Title,
		EventID: run.EventID,
		Result: datatypes.NewJSONType(RunPayload{
			Summaries:  run.Summaries,
			Breakdowns: run.Breakdowns,
		}),
		TopBet:    summary.TopBet,
		BetCount:  summary.BetCount,
		CreatedAt: run.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, ownerID, id string) (models.AnalysisRun, error) {
	var record AnalysisRunRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AnalysisRun{}, ErrRunNotFound
		}
		return models.AnalysisRun{}, fmt.Errorf("failed to get analysis run: %w", err)
	}

	payload := record.Result.Data()
	return models.AnalysisRun{
		ID:         record.ID,
		OwnerID:    record.OwnerID,
		Title:      record.Title,
		EventID:    record.EventID,
		CreatedAt:  record.CreatedAt,
		Summaries:  payload.Summaries,
		Breakdowns: payload.Breakdowns,
	}, nil
}

// ListByOwner returns the newest runs first.
func (r *RunRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.RunListItem, error) {
	var records []AnalysisRunRecord
	err := r.db.WithContext(ctx).
		Select("id", "title", "event_id", "top_bet", "bet_count", "created_at").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}

	items := make([]models.RunListItem, len(records))
	for i, rec := range records {
		items[i] = models.RunListItem{
			ID:        rec.ID,
			Title:     rec.Title,
			EventID:   rec.EventID,
			CreatedAt: rec.CreatedAt,
			TopBet:    rec.TopBet,
			BetCount:  rec.BetCount,
		}
	}
	return items, nil
}
