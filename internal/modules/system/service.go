package system

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sure-link/core/internal/database"
	"github.com/sure-link/core/internal/models"
	"github.com/sure-link/core/internal/modules/chat"
	pkgcron "github.com/sure-link/core/internal/pkg/cron"
	pkgredis "github.com/sure-link/core/internal/pkg/redis"
)

const redisKeyMaxOnlineCount = "surelink:max_online_count"

// HealthReport is the /api/health payload.
type HealthReport struct {
	Status   string                 `json:"status"`
	Uptime   string                 `json:"uptime"`
	Database DatabaseHealth         `json:"database"`
	Memory   map[string]interface{} `json:"memory"`
	Cron     []pkgcron.ListItem     `json:"cron"`
}

type DatabaseHealth struct {
	Connected bool     `json:"connected"`
	Tables    []string `json:"tables"`
	OpenConns int      `json:"openConnections"`
	InUse     int      `json:"inUse"`
	Idle      int      `json:"idle"`
}

// CleanupResult reports how many rows the retention pass removed.
type CleanupResult struct {
	Messages   int64 `json:"messages"`
	Encounters int64 `json:"encounters"`
}

// Service answers operational queries about the running process.
type Service struct {
	db        *gorm.DB
	rc        *pkgredis.Client
	chats     *chat.Service
	sched     *pkgcron.Scheduler
	logger    *zap.Logger
	startedAt time.Time
}

func NewService(db *gorm.DB, rc *pkgredis.Client, chats *chat.Service, sched *pkgcron.Scheduler, logger *zap.Logger) *Service {
	return &Service{
		db:        db,
		rc:        rc,
		chats:     chats,
		sched:     sched,
		logger:    logger.Named("SystemService"),
		startedAt: time.Now(),
	}
}

// Health probes the database and reports process vitals.
func (s *Service) Health() HealthReport {
	report := HealthReport{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Truncate(time.Second).String(),
		Cron:   s.sched.List(),
	}

	sqlDB, err := s.db.DB()
	if err == nil {
		if pingErr := sqlDB.Ping(); pingErr == nil {
			report.Database.Connected = true
			stats := sqlDB.Stats()
			report.Database.OpenConns = stats.OpenConnections
			report.Database.InUse = stats.InUse
			report.Database.Idle = stats.Idle
		}
	}
	if report.Database.Connected {
		if tables, err := database.TableNames(s.db); err == nil {
			report.Database.Tables = tables
		}
	} else {
		report.Status = "degraded"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	report.Memory = map[string]interface{}{
		"allocMB":      mem.Alloc / 1024 / 1024,
		"sysMB":        mem.Sys / 1024 / 1024,
		"numGC":        mem.NumGC,
		"numGoroutine": runtime.NumGoroutine(),
	}

	return report
}

// Stats aggregates message and encounter counts plus today's peak online.
func (s *Service) Stats(online int) (map[string]interface{}, error) {
	msgStats, err := s.chats.GetStatistics()
	if err != nil {
		return nil, err
	}

	var encounterTotal, encounterToday int64
	if err := s.db.Model(&models.EncounterModel{}).Count(&encounterTotal).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.EncounterModel{}).
		Where("created_at >= CURDATE()").Count(&encounterToday).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"online":     online,
		"peakOnline": s.peakOnlineToday(),
		"messages":   msgStats,
		"encounters": map[string]interface{}{
			"total": encounterTotal,
			"today": encounterToday,
		},
	}, nil
}

// peakOnlineToday reads today's max from the gateway counters.
func (s *Service) peakOnlineToday() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dateKey := time.Now().Format("1-2-06")
	raw, err := s.rc.Raw().HGet(ctx, redisKeyMaxOnlineCount, dateKey).Result()
	if err != nil {
		return 0
	}
	peak, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return peak
}

// Cleanup deletes messages and encounters older than the retention window.
func (s *Service) Cleanup(days int) (CleanupResult, error) {
	if days <= 0 {
		days = 30
	}

	messages, err := s.chats.DeleteOldMessages(days)
	if err != nil {
		return CleanupResult{}, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.EncounterModel{})
	if result.Error != nil {
		return CleanupResult{Messages: messages}, result.Error
	}

	s.logger.Info("retention cleanup done",
		zap.Int64("messages", messages),
		zap.Int64("encounters", result.RowsAffected),
	)
	return CleanupResult{Messages: messages, Encounters: result.RowsAffected}, nil
}
