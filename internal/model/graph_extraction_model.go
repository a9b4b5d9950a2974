package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GraphExtraction struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	DocumentTitle string         `gorm:"type:text"`
	Entities      datatypes.JSON `gorm:"type:jsonb"`
	Claims        datatypes.JSON `gorm:"type:jsonb"`
	Events        datatypes.JSON `gorm:"type:jsonb"`
	KeyFacts      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (GraphExtraction) TableName() string {
	return "graph_extractions"
}
