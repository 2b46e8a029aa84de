package chat

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sure-link/core/internal/models"
)

// HistoryItem is one replayed message.
type HistoryItem struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics summarizes the messages table.
type Statistics struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
}

// Service persists and queries chat messages. Writes from the socket hot
// path are enqueued by the gateway; this service only talks to the
// database.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger.Named("ChatService")}
}

// Process validates and sanitizes an incoming message. Persistence is the
// caller's concern (it happens asynchronously).
func (s *Service) Process(msg *IncomingMessage) (CleanMessage, error) {
	if err := Validate(msg); err != nil {
		return CleanMessage{}, err
	}
	return Sanitize(msg), nil
}

// SaveMessage writes one message.
func (s *Service) SaveMessage(username, text string) (*models.MessageModel, error) {
	item := models.MessageModel{Username: username, Text: text}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	s.logger.Info("message saved", zap.String("username", username), zap.String("id", item.ID))
	return &item, nil
}

// GetHistory returns the newest limit messages in chronological order.
func (s *Service) GetHistory(limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.MessageModel
	err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]HistoryItem, len(rows))
	for i, row := range rows {
		// reverse: oldest first
		out[len(rows)-1-i] = HistoryItem{
			Username:  row.Username,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}

// DeleteOldMessages removes messages older than the retention window and
// returns how many were deleted.
func (s *Service) DeleteOldMessages(days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.MessageModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetStatistics counts messages overall, today and over the last week.
func (s *Service) GetStatistics() (Statistics, error) {
	var stats Statistics
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := s.db.Model(&models.MessageModel{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&models.MessageModel{}).
		Where("created_at >= ?", startOfDay).Count(&stats.Today).Error; err != nil {
		return stats, err
	}
	err := s.db.Model(&models.MessageModel{}).
		Where("created_at >= ?", startOfDay.AddDate(0, 0, -7)).Count(&stats.Week).Error
	return stats, err
}
