// Package job holds the cron jobs the nasweb server schedules.
package job

import (
	"github.com/spu-nas/nasweb/database"
	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/util/common"

	"go.uber.org/atomic"
)

// CheckpointDBJob folds the SQLite write-ahead log back into the database file.
type CheckpointDBJob struct {
	running atomic.Bool
}

// NewCheckpointDBJob creates a new checkpoint job instance.
func NewCheckpointDBJob() *CheckpointDBJob {
	return new(CheckpointDBJob)
}

// Run checkpoints the database. A run that starts while the previous one is
// still going is skipped.
func (j *CheckpointDBJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Debug("checkpoint db job: previous run still in progress")
		return
	}
	defer j.running.Store(false)
	defer common.Recover("checkpoint db job")

	if err := database.Checkpoint(); err != nil {
		logger.Warning("checkpoint db job err:", err)
		return
	}
	logger.Debug("checkpoint db job: done")
}
