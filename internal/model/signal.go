package model

import (
	"time"

	"gorm.io/datatypes"
)

// Signal is one processed signal. Rows are written once and never updated.
type Signal struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Timestamp string         `gorm:"type:varchar(64)" json:"timestamp"`
	Asset     string         `gorm:"type:varchar(64);index" json:"asset"`
	Direction string         `gorm:"type:varchar(16);index" json:"direction"`
	Score     float64        `json:"score"`
	Entry     *float64       `json:"entry"`
	Stop      *float64       `json:"stop"`
	TP1       *float64       `gorm:"column:tp1" json:"tp1"`
	TP2       *float64       `gorm:"column:tp2" json:"tp2"`
	TP3       *float64       `gorm:"column:tp3" json:"tp3"`
	Prob      float64        `gorm:"column:prob" json:"prob"`
	PathClear bool           `json:"path_clear"`
	IsWeekend bool           `json:"is_weekend"`
	Analysis  datatypes.JSON `json:"analysis"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Signal) TableName() string {
	return "signals"
}

type SignalFilter struct {
	Limit     int
	Asset     string
	Direction string
}

type SignalStats struct {
	Total    int64    `json:"total"`
	Buys     int64    `json:"buys"`
	Sells    int64    `json:"sells"`
	AvgScore float64  `json:"avg_score"`
	AvgProb  float64  `json:"avg_prob"`
	Assets   []string `json:"assets"`
}
