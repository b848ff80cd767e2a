// Package analyses persists mock analysis results for captured recordings.
package analyses

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/khelo/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveAnalysis stores the result for a recording, replacing an earlier
// result for the same item.
func (r *Repository) SaveAnalysis(itemID, athleteID, testID, testName string, result entities.AnalysisResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis result: %w", err)
	}

	record := entities.AnalysisRecord{
		ItemID:     itemID,
		AthleteID:  athleteID,
		TestID:     testID,
		TestName:   testName,
		Variant:    result.Variant,
		Confidence: result.Confidence,
		FaceMatch:  result.FaceMatch,
		Result:     string(encoded),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"athlete_id", "test_id", "test_name", "variant", "confidence", "face_match", "result"}),
	}).Create(&record).Error
}

// GetByItemID returns the stored result for a recording, or nil if none.
func (r *Repository) GetByItemID(itemID string) (*entities.AnalysisRecord, error) {
	var record entities.AnalysisRecord
	err := r.db.Where("item_id = ?", itemID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListForAthlete returns an athlete's results, newest first.
func (r *Repository) ListForAthlete(athleteID string, limit int) ([]entities.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []entities.AnalysisRecord
	err := r.db.Where("athlete_id = ?", athleteID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Decode unpacks the stored JSON result of a record.
func Decode(record entities.AnalysisRecord) (entities.AnalysisResult, error) {
	var result entities.AnalysisResult
	if err := json.Unmarshal([]byte(record.Result), &result); err != nil {
		return entities.AnalysisResult{}, fmt.Errorf("decode analysis %s: %w", record.ItemID, err)
	}
	return result, nil
}
