package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/filingchat/internal/rag"
	"go.uber.org/zap"
)

// IndexStatsJob periodically logs how full the in-memory filing store
// is. Useful for spotting eviction pressure on long-running instances.
type IndexStatsJob struct {
	store      *rag.Store
	maxFilings int
}

func NewIndexStatsJob(store *rag.Store, maxFilings int) *IndexStatsJob {
	return &IndexStatsJob{store: store, maxFilings: maxFilings}
}

func (j *IndexStatsJob) Name() string {
	return "index_stats"
}

func (j *IndexStatsJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	logutil.GetLogger(ctx).Info("index stats",
		zap.Int("filings", j.store.Len()),
		zap.Int("capacity", j.maxFilings),
	)
	return nil
}
