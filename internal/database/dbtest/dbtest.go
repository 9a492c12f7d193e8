// Package dbtest opens throwaway in-memory sqlite databases for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
	"github.com/bigp7952/siggil-sub002/internal/database"
)

// New returns connections to a fresh database holding a table per model.
// The database is closed when the test ends.
func New(t testing.TB, models ...any) *database.Connections {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg := config.Config{Database: config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn}}

	lc := fxtest.NewLifecycle(t)
	conns, err := database.New(lc, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	lc.RequireStart()
	t.Cleanup(func() { lc.RequireStop() })

	ctx := context.Background()
	for _, model := range models {
		if _, err := conns.Writer.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table for %T: %v", model, err)
		}
	}
	return conns
}

// Unique adds a unique index on column of the model's table.
func Unique(t testing.TB, conns *database.Connections, model any, index, column string) {
	t.Helper()

	_, err := conns.Writer.NewCreateIndex().Model(model).Unique().Index(index).Column(column).Exec(context.Background())
	if err != nil {
		t.Fatalf("create index %s: %v", index, err)
	}
}
