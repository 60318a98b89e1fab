package pgvector

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

func TestToVector(t *testing.T) {
	v := toVector([]float64{0.5, -2, 0.25})
	assert.Equal(t, []float32{0.5, -2, 0.25}, v.Slice())

	val, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, v.String(), val)
	assert.True(t, strings.HasPrefix(v.String(), "["))

	assert.Empty(t, toVector(nil).Slice())
}

func TestMetadataOf(t *testing.T) {
	m := metadataOf(domain.Fragment{SourceType: domain.SourcePDF, SourceLocation: "/a.pdf", PageNumber: 2})
	require.NotNil(t, m.Loc)
	assert.Equal(t, 2, m.Loc.PageNumber)
	assert.Equal(t, "pdf", m.Type)

	assert.Nil(t, metadataOf(domain.Fragment{SourceType: domain.SourceCSV}).Loc)
}

func TestIsUndefinedTable(t *testing.T) {
	assert.True(t, isUndefinedTable(fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"})))
	assert.False(t, isUndefinedTable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUndefinedTable(fmt.Errorf("boom")))
}

func TestNewStorage_Validation(t *testing.T) {
	_, err := NewStorage(context.Background(), Config{})
	assert.Error(t, err)

	_, err = NewStorage(context.Background(), Config{DSN: "::not a dsn::"})
	assert.Error(t, err)
}

// TestStorage_Postgres runs against a real database when RAG_TEST_DATABASE_URL is set.
func TestStorage_Postgres(t *testing.T) {
	dsn := os.Getenv("RAG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("RAG_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := fmt.Sprintf("rag_test_%d", time.Now().UnixNano())
	s, err := NewStorage(ctx, Config{DSN: dsn, Table: table})
	require.NoError(t, err)
	defer func() {
		_, _ = s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+s.table)
		_ = s.Close()
	}()

	res, err := s.Search(ctx, []float64{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res, "missing table reads as empty")

	frags := []domain.Fragment{
		{Content: "x axis", SourceType: domain.SourcePDF, SourceLocation: "/a.pdf", PageNumber: 1},
		{Content: "y axis", SourceType: domain.SourceCSV, SourceLocation: "/b.csv"},
	}
	require.NoError(t, s.Upsert(ctx, frags, [][]float64{{1, 0, 0}, {0, 1, 0}}))

	res, err = s.Search(ctx, []float64{0.9, 0.1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, frags[0], res[0].Fragment)
	assert.Equal(t, frags[1], res[1].Fragment)
	assert.Greater(t, res[0].Score, res[1].Score)
}
