package store

import (
	"fmt"
	"path/filepath"

	"leadparser-engine/internal/config"
)

// Open picks the backend from config. sqlite paths are resolved relative to
// the data dir.
func Open(cfg config.Config) (LeadStore, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		path := cfg.Database.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.App.DataDir, path)
		}
		return OpenSQLite(path)
	case "postgres":
		return OpenPostgres(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Database.Driver)
	}
}
