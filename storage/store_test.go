package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pivot/engine"
)

func sampleSnapshot(name string) engine.Snapshot {
	return engine.Snapshot{
		Name:                 name,
		ShowGrandTotalForRow: true,
		Fields: []engine.SnapshotField{
			{Name: "REGION", Title: "Region", Area: engine.AreaRow},
			{Name: "SALES", Title: "Sales", Area: engine.AreaData, Aggregate: engine.AggregateSum},
		},
	}
}

// exerciseStore runs the same contract against every implementation.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = s.Load(ctx, "monthly")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, sampleSnapshot("monthly")))
	require.NoError(t, s.Save(ctx, sampleSnapshot("by region/2024")))

	got, err := s.Load(ctx, "monthly")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot("monthly"), *got)

	// Save overwrites
	changed := sampleSnapshot("monthly")
	changed.Fields[1].Aggregate = engine.AggregateAvg
	require.NoError(t, s.Save(ctx, changed))
	got, err = s.Load(ctx, "monthly")
	require.NoError(t, err)
	assert.Equal(t, engine.AggregateAvg, got.Fields[1].Aggregate)

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"by region/2024", "monthly"}, names)

	require.NoError(t, s.Delete(ctx, "monthly"))
	assert.ErrorIs(t, s.Delete(ctx, "monthly"), ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, engine.Snapshot{}), ErrInvalidName)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	snap := sampleSnapshot("x")
	require.NoError(t, s.Save(ctx, snap))

	snap.Fields[0].Title = "changed"
	got, err := s.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Region", got.Fields[0].Title)
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(filepath.Join(t.TempDir(), "configs"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreEscapesNames(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), sampleSnapshot("../escape")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "..%2Fescape.json", entries[0].Name())

	got, err := s.Load(context.Background(), "../escape")
	require.NoError(t, err)
	assert.Equal(t, "../escape", got.Name)

	_, err = s.Load(context.Background(), "..")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFileStoreSimilarNamesStayApart(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)

	spaced := sampleSnapshot("q1 sales")
	underscored := sampleSnapshot("q1_sales")
	underscored.Fields[1].Aggregate = engine.AggregateMax
	plus := sampleSnapshot("q1+sales")
	plus.Fields[1].Aggregate = engine.AggregateCount
	require.NoError(t, s.Save(ctx, spaced))
	require.NoError(t, s.Save(ctx, underscored))
	require.NoError(t, s.Save(ctx, plus))

	for _, want := range []engine.Snapshot{spaced, underscored, plus} {
		got, err := s.Load(ctx, want.Name)
		require.NoError(t, err, want.Name)
		assert.Equal(t, want, *got)
	}

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1 sales", "q1+sales", "q1_sales"}, names)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("PIVOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PIVOT_TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	s := NewPostgres(db)
	require.NoError(t, s.EnsureSchema(ctx))
	_, err = db.ExecContext(ctx, `DELETE FROM pivot_configs`)
	require.NoError(t, err)

	exerciseStore(t, s)
}
