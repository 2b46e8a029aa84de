package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sure-link/core/internal/config"
	"github.com/sure-link/core/internal/models"
	"github.com/sure-link/core/internal/modules/chat"
	"github.com/sure-link/core/internal/modules/encounter"
	"github.com/sure-link/core/internal/modules/gateway"
	"github.com/sure-link/core/internal/modules/ratelimit"
	pkgcron "github.com/sure-link/core/internal/pkg/cron"
)

type cronDeps struct {
	cfg     *config.AppConfig
	co      *gateway.Coordinator
	ledger  *encounter.Ledger
	limiter *ratelimit.Limiter
	chats   *chat.Service
	db      *gorm.DB
	logger  *zap.Logger
}

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, deps cronDeps) {
	cronLogger := deps.logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "evict_stale_presence",
		Description: "更新が途絶えた位置情報を削除",
		Interval:    deps.cfg.Realtime.PresenceEvictInterval,
		Fn: func(ctx context.Context) error {
			if evicted := deps.co.EvictStale(deps.cfg.Realtime.PresenceTimeout); evicted > 0 {
				cronLogger.Info(fmt.Sprintf("位置情報を %d 件削除しました", evicted))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sweep_encounter_ledger",
		Description: "クールダウン切れのすれ違い記録を掃除",
		Interval:    deps.cfg.Realtime.LedgerSweepInterval,
		Fn: func(ctx context.Context) error {
			deps.ledger.Sweep()
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sweep_rate_limiter",
		Description: "期限切れのレート制限カウンタを掃除",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			deps.limiter.Sweep(deps.cfg.RateLimit.General.Window())
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_history",
		Description: "保持期間を過ぎたメッセージとすれ違い履歴を削除",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			days := deps.cfg.MessageRetentionDays
			deleted, err := deps.chats.DeleteOldMessages(days)
			if err != nil {
				cronLogger.Warn("メッセージの削除に失敗しました", zap.Error(err))
				return err
			}

			cutoff := time.Now().AddDate(0, 0, -days)
			result := deps.db.Where("created_at < ?", cutoff).Delete(&models.EncounterModel{})
			if result.Error != nil {
				cronLogger.Warn("すれ違い履歴の削除に失敗しました", zap.Error(result.Error))
				return result.Error
			}

			cronLogger.Info(fmt.Sprintf("履歴を削除しました（メッセージ %d 件、すれ違い %d 件）", deleted, result.RowsAffected))
			return nil
		},
	})
}
