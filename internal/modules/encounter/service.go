package encounter

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sure-link/core/internal/models"
)

// Record is one encounter to persist, from the perspective of the user
// whose update triggered it (their position is stored as the location).
type Record struct {
	User1SID      string
	User1Nickname string
	User2SID      string
	User2Nickname string
	Distance      float64
	Latitude      float64
	Longitude     float64
}

// HistoryItem is one past encounter as seen by the querying connection.
type HistoryItem struct {
	User      string    `json:"user"`
	Distance  float64   `json:"distance"`
	Latitude  *float64  `json:"lat"`
	Longitude *float64  `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarizes a connection's encounters.
type Stats struct {
	Total       int64 `json:"total"`
	Today       int64 `json:"today"`
	Week        int64 `json:"week"`
	UniqueUsers int64 `json:"uniqueUsers"`
}

// HeatPoint is one aggregated encounter location.
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity int     `json:"intensity"`
}

// DailyCount is encounters per day, for charts.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Service persists encounter records and answers history/statistics
// queries. Hot-path writes arrive through the task queue, never inline.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger.Named("EncounterService")}
}

// Save writes one encounter row.
func (s *Service) Save(rec Record) error {
	lat, lng := rec.Latitude, rec.Longitude
	item := models.EncounterModel{
		User1SID:      rec.User1SID,
		User1Nickname: rec.User1Nickname,
		User2SID:      rec.User2SID,
		User2Nickname: rec.User2Nickname,
		Distance:      rec.Distance,
		Latitude:      &lat,
		Longitude:     &lng,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return err
	}
	s.logger.Info("encounter saved",
		zap.String("user1", rec.User1Nickname),
		zap.String("user2", rec.User2Nickname),
		zap.Float64("distance", rec.Distance),
	)
	return nil
}

// History returns the most recent encounters involving sid, newest first.
func (s *Service) History(sid string, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []HistoryItem
	err := s.db.Raw(`
		SELECT
			CASE WHEN user1_sid = ? THEN user2_nickname ELSE user1_nickname END AS user,
			distance,
			latitude  AS lat,
			longitude AS lng,
			created_at AS timestamp
		FROM encounters
		WHERE user1_sid = ? OR user2_sid = ?
		ORDER BY created_at DESC
		LIMIT ?`, sid, sid, sid, limit).Scan(&items).Error
	return items, err
}

// GetStats aggregates encounter counts for one connection.
func (s *Service) GetStats(sid string) (Stats, error) {
	var stats Stats
	base := s.db.Model(&models.EncounterModel{}).
		Where("user1_sid = ? OR user2_sid = ?", sid, sid)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("created_at >= CURDATE()").Count(&stats.Today).Error; err != nil {
		return stats, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("created_at >= DATE_SUB(CURDATE(), INTERVAL 7 DAY)").Count(&stats.Week).Error; err != nil {
		return stats, err
	}
	err := s.db.Raw(`
		SELECT COUNT(DISTINCT
			CASE WHEN user1_sid = ? THEN user2_nickname ELSE user1_nickname END
		)
		FROM encounters
		WHERE user1_sid = ? OR user2_sid = ?`, sid, sid, sid).Scan(&stats.UniqueUsers).Error
	return stats, err
}

// Heatmap aggregates encounter locations for one connection.
func (s *Service) Heatmap(sid string) ([]HeatPoint, error) {
	var points []HeatPoint
	err := s.db.Raw(`
		SELECT latitude AS lat, longitude AS lng, COUNT(*) AS intensity
		FROM encounters
		WHERE (user1_sid = ? OR user2_sid = ?)
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
		GROUP BY latitude, longitude`, sid, sid).Scan(&points).Error
	return points, err
}

// DailyStats counts encounters per day over the trailing window.
func (s *Service) DailyStats(sid string, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	var counts []DailyCount
	err := s.db.Raw(`
		SELECT DATE(created_at) AS date, COUNT(*) AS count
		FROM encounters
		WHERE (user1_sid = ? OR user2_sid = ?)
		  AND created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		GROUP BY DATE(created_at)
		ORDER BY date DESC`, sid, sid, days).Scan(&counts).Error
	return counts, err
}
