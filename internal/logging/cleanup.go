package logging

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/talkboard/backend/internal/models"
)

// logRetention bounds how long rows stay in system_logs.
const logRetention = 30 * 24 * time.Hour

// StartCleanup prunes expired system_logs rows, once at startup and then
// daily, until done is closed.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		prune(db)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				prune(db)
			case <-done:
				return
			}
		}
	}()
}

func prune(db *gorm.DB) {
	cutoff := time.Now().Add(-logRetention)
	res := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if res.Error != nil {
		slog.Error("log retention sweep failed", "error", res.Error)
	} else if res.RowsAffected > 0 {
		slog.Info("expired log rows pruned", "deleted", res.RowsAffected)
	}
}
