package models

// MessageModel stores one chat message.
type MessageModel struct {
	Base
	Username string `json:"username" gorm:"size:50;not null"`
	Text     string `json:"text"     gorm:"type:text;not null"`
}

func (MessageModel) TableName() string { return "messages" }
