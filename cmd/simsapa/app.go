package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simsapa/simsapa-sub001/app/config"
	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/search"
)

// app holds what the commands share: the config, the databases, the
// indexes and the search service with its worker pool.
type app struct {
	conf    *config.SimsapaConfig
	store   *docstore.ContentStore
	indexes *fulltext.IndexManager
	pool    *search.WorkerPool
	svc     *search.Service

	cancel context.CancelFunc
}

// openApp opens the databases and the indexes of --data-dir. An empty
// mandatory index is reported but is not an error, the index commands are
// how it gets filled.
func openApp(ctx context.Context) (*app, error) {
	conf, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}

	store, err := docstore.OpenContentStore(ctx, &conf)
	if err != nil {
		return nil, fmt.Errorf("opening databases in %s: %w", dataDir, err)
	}

	indexes := fulltext.NewIndexManager(&conf, store)
	if err := indexes.OpenAll(ctx, false); err != nil {
		store.Close()
		return nil, fmt.Errorf("opening indexes: %w", err)
	}
	if indexes.HasEmptyIndex() {
		slog.Warn("some indexes are empty, build them with: simsapa index create")
	}

	poolCtx, cancel := context.WithCancel(context.Background())
	pool := search.NewWorkerPool(conf.WorkerCount, 4*conf.WorkerCount)
	pool.Start(poolCtx)

	return &app{
		conf:    &conf,
		store:   store,
		indexes: indexes,
		pool:    pool,
		svc:     search.NewService(&conf, store, indexes, pool),
		cancel:  cancel,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
	a.cancel()
	if err := a.indexes.Close(); err != nil {
		slog.Error("closing indexes", "err", err)
	}
	if err := a.store.Close(); err != nil {
		slog.Error("closing databases", "err", err)
	}
}
