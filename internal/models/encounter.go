package models

// EncounterModel records one proximity event between two connections.
// CreatedAt doubles as the encounter timestamp.
type EncounterModel struct {
	Base
	User1SID      string   `json:"user1_sid"      gorm:"size:64;index"`
	User1Nickname string   `json:"user1_nickname" gorm:"size:50"`
	User2SID      string   `json:"user2_sid"      gorm:"size:64;index"`
	User2Nickname string   `json:"user2_nickname" gorm:"size:50"`
	Distance      float64  `json:"distance"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (EncounterModel) TableName() string { return "encounters" }
