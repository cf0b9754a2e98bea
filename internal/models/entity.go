package models

import "gorm.io/datatypes"

type Entity struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	HintID     uint              `gorm:"not null;index" json:"hint_id"`
	Entity     string            `gorm:"size:500" json:"entity"`
	EntType    string            `gorm:"size:100" json:"ent_type"`
	StartIndex int               `json:"start_index"`
	EndIndex   int               `json:"end_index"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata_json" json:"metadata"`
}
