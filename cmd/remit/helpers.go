package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/config"
	"github.com/remitware/remit/internal/engine"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/storage"
)

// initStorage opens the database from configuration and migrates it.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, nil, common.NewUserError(fmt.Sprintf("failed to open database at %s", cfg.DatabasePath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, common.NewUserError("failed to run database migrations", err)
	}

	return store, cfg, nil
}

// findClaim resolves a claim by ID first, then by claim number.
func findClaim(ctx context.Context, store *storage.SQLiteStorage, ref string) (*model.Claim, error) {
	claim, err := store.GetClaim(ctx, ref)
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	claim, err = store.GetClaimByNumber(ctx, ref)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("no claim with ID or number %q", ref), err)
	}
	return claim, nil
}

// initEngine opens storage and wraps it in the workflow orchestrator.
func initEngine(ctx context.Context) (*engine.Orchestrator, *storage.SQLiteStorage, *config.Config, error) {
	store, cfg, err := initStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine.New(store), store, cfg, nil
}
