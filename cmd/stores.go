// File: cmd/stores.go
package cmd

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/observability"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

// stageStores bundles the three shared JSON stores a stage command opens.
type stageStores struct {
	catalog store.Catalog
	plan    store.Plan
	queue   store.Queue
	logger  *zap.Logger
}

func openStores() stageStores {
	// Every log line of a stage run shares one run id, so interleaved runs
	// in the rotated log file stay separable.
	logger := observability.GetLogger().With(zap.String("run_id", uuid.NewString()))
	return stageStores{
		catalog: store.NewCatalog(appCfg.Stores.CatalogPath, logger),
		plan:    store.NewPlan(appCfg.Stores.PlanPath, logger),
		queue:   store.NewQueue(appCfg.Stores.QueuePath, logger),
		logger:  logger,
	}
}
