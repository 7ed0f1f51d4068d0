package models

import (
	"encoding/json"
	"time"
)

// PredictionRecord is one served prediction, kept for the history endpoint.
type PredictionRecord struct {
	ID           string          `gorm:"column:id;primaryKey" json:"prediction_id"`
	TS           time.Time       `gorm:"column:ts;index" json:"ts"`
	Severity     string          `gorm:"column:severity;index" json:"predicted_severity"`
	Confidence   float64         `gorm:"column:confidence" json:"confidence_score"`
	ModelVersion string          `gorm:"column:model_version" json:"model_version"`
	ArtifactID   string          `gorm:"column:artifact_id" json:"artifact_id"`
	Source       string          `gorm:"column:source" json:"source"`
	Request      json.RawMessage `gorm:"column:request;type:jsonb" json:"request"`
}

func (PredictionRecord) TableName() string { return "prediction_history" }
