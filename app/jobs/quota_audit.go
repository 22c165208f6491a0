// Package jobs registers Better Drive's scheduled background jobs.
package jobs

import (
	"strconv"

	"gorm.io/gorm"

	"github.com/betterdrive/betterdrive/app/repositories"
	"github.com/betterdrive/betterdrive/pkg/logger"
	"github.com/betterdrive/betterdrive/pkg/metrics"
	"github.com/betterdrive/betterdrive/pkg/schedule"
)

// RegisterAll wires every background job into the scheduler.
// Call once at boot, before schedule.Start.
func RegisterAll(db *gorm.DB) {
	schedule.Hourly().
		Name("quota-audit").
		WithoutOverlapping().
		Run(func() { QuotaAudit(db) })
}

// QuotaAudit compares each user's storage_used ledger against the actual
// sum of their file sizes and reports any drift. The ledger is maintained
// transactionally with every file mutation, so a non-zero drift means a bug
// or manual data surgery; the job reports, it does not repair.
func QuotaAudit(db *gorm.DB) {
	users := repositories.NewUserRepository()

	ledger, err := users.StorageLedger(db)
	if err != nil {
		logger.Error("quota audit: ledger query failed", "error", err)
		return
	}

	all, err := users.AllUsers(db)
	if err != nil {
		logger.Error("quota audit: user query failed", "error", err)
		return
	}

	drifted := 0
	for _, u := range all {
		actual := ledger[u.ID] // zero for users with no files
		drift := u.StorageUsed - actual
		if drift < 0 {
			drift = -drift
		}
		metrics.QuotaDrift.WithLabelValues(strconv.FormatUint(uint64(u.ID), 10)).Set(float64(drift))
		if drift != 0 {
			drifted++
			logger.Warn("quota audit: ledger drift detected",
				"user_id", u.ID,
				"storage_used", u.StorageUsed,
				"actual", actual,
			)
		}
	}

	logger.Info("quota audit: completed", "users", len(all), "drifted", drifted)
}
