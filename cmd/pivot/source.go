package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/helpers"
	"github.com/spektr-org/pivot/schema"
	"github.com/spektr-org/pivot/storage"
)

// sourceFlags selects the dataset: a CSV or XLSX file, or a SQL query run
// against DATABASE_URL.
type sourceFlags struct {
	file  string
	sheet string
	query string
}

func (f *sourceFlags) register(cmd *cobra.Command, withSQL bool) {
	cmd.Flags().StringVar(&f.file, "file", "", "CSV or XLSX data file")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet of an XLSX file (default: first sheet)")
	if withSQL {
		cmd.Flags().StringVar(&f.query, "sql", "", "SQL query run against DATABASE_URL instead of --file")
	}
}

// load returns the data source and, for files, the discovered schema.
func (f *sourceFlags) load(ctx context.Context, a *app) (engine.DataSource, *schema.Config, error) {
	switch {
	case f.file != "" && f.query != "":
		return nil, nil, errors.New("--file and --sql are mutually exclusive")
	case f.query != "":
		db, err := openDB(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()
		src, err := helpers.QuerySQL(ctx, db, f.query)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("query loaded", "rows", src.RowCount(), "fields", src.FieldCount())
		return src, nil, nil
	case f.file == "":
		return nil, nil, errors.New("--file is required")
	}

	var (
		src *engine.SliceSource
		sch *schema.Config
		err error
	)
	switch strings.ToLower(filepath.Ext(f.file)) {
	case ".xlsx", ".xlsm":
		src, sch, err = helpers.ParseXLSX(f.file, f.sheet)
	default:
		var data []byte
		data, err = os.ReadFile(f.file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read file: %w", err)
		}
		src, sch, err = helpers.ParseCSVAuto(data)
	}
	if err != nil {
		return nil, nil, err
	}

	a.logger.Info("dataset loaded",
		"file", f.file,
		"rows", src.RowCount(),
		"dimensions", len(sch.Dimensions()),
		"measures", len(sch.Measures()),
		"skipped", len(sch.Skipped()),
	)
	return src, sch, nil
}

func openDB(ctx context.Context, a *app) (*sqlx.DB, error) {
	if a.cfg.Storage.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", a.cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// openStore builds the configured configuration store. The returned close
// function is never nil.
func openStore(ctx context.Context, a *app) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch a.cfg.Storage.Driver {
	case "file":
		store, err := storage.NewFile(a.cfg.Storage.Dir)
		return store, noop, err
	case "postgres":
		db, err := openDB(ctx, a)
		if err != nil {
			return nil, noop, err
		}
		store := storage.NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil
	default:
		return storage.NewMemory(), noop, nil
	}
}
