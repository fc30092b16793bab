package cmd

import (
	"fmt"

	"github.com/aTrapDeer/catalyst-backend/internal/config"
	"github.com/aTrapDeer/catalyst-backend/internal/notify"
	"github.com/aTrapDeer/catalyst-backend/internal/render"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	log "github.com/sirupsen/logrus"
)

// openStore opens the content database named by cfg. The returned func
// closes it.
func openStore(cfg config.Config) (*store.Store, func(), error) {
	db, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warnf("close database: %v", err)
			}
		}
	}
	kv, err := store.NewGormKV(db)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	log.Debugf("content database %s opened", cfg.DatabasePath)
	return store.New(kv, notify.NewBus()), closeDB, nil
}

func newRenderer(cfg config.Config) (*render.Renderer, error) {
	rd, err := render.New(render.Site{
		Title:     cfg.SiteTitle,
		BaseURL:   cfg.BaseURL,
		BlogLimit: cfg.BlogLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return rd, nil
}
