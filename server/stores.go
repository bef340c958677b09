package server

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/Daskott/haven/server/docstore"
	"github.com/Daskott/haven/server/gfirebase"
	"github.com/Daskott/haven/server/memstore"
	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/server/sos"
	"github.com/Daskott/haven/shared"
)

type Store interface {
	sos.Store
	Close() error
}

var (
	_ Store = (*models.SqlStore)(nil)
	_ Store = (*docstore.Store)(nil)
	_ Store = (*memstore.Store)(nil)
)

// OpenStore opens the store picked by 'store.driver', for callers that don't
// already have a firebase app around e.g. the ops CLI.
func OpenStore(ctx context.Context, config *shared.ServerConfig, devMode bool) (Store, error) {
	var app *firebase.App
	var err error

	if config.Store.Driver == shared.FIRESTORE_STORE {
		app, err = gfirebase.NewApp(ctx, config.Firebase)
		if err != nil {
			return nil, err
		}
	}

	rootDir, err := sqliteRootDir(config, devMode)
	if err != nil {
		return nil, err
	}

	return openStore(ctx, config, rootDir, app)
}

func openStore(ctx context.Context, config *shared.ServerConfig, rootDir string, app *firebase.App) (Store, error) {
	switch config.Store.Driver {
	case shared.FIRESTORE_STORE:
		return docstore.New(ctx, app)
	case shared.SQLITE_STORE:
		return models.NewSqlStore(config.Sqlite.PassPhrase, rootDir)
	case shared.MEMORY_STORE:
		return memstore.New(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", config.Store.Driver)
}

func sqliteRootDir(config *shared.ServerConfig, devMode bool) (string, error) {
	if config.Store.Driver != shared.SQLITE_STORE {
		return "", nil
	}

	if config.Sqlite.RootDir != "" {
		return config.Sqlite.RootDir, nil
	}

	return configDirectory(devMode)
}
