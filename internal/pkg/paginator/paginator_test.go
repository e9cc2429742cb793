package paginator

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/paulexconde/together/internal/database"
	"github.com/paulexconde/together/internal/models"
	datastore "github.com/paulexconde/together/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuestionPaginator(t *testing.T, count int) Paginator[models.Question] {
	t.Helper()

	db, err := database.Open(database.SQLite, "file:"+filepath.Join(t.TempDir(), "page.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ds := datastore.NewDataStore[models.Question](db, "daily_questions")
	for i := range count {
		_, err := ds.Create(context.Background(), models.QuestionDTO{Text: fmt.Sprintf("question %d", i+1), Kind: models.FreeText})
		require.NoError(t, err)
	}
	return NewPaginator[models.Question](ds)
}

const listQuery = "SELECT id, text, kind, options FROM daily_questions ORDER BY id ASC"

func TestPaginateQuery(t *testing.T) {
	p := newQuestionPaginator(t, 5)
	ctx := context.Background()

	res, err := p.PaginateQuery(ctx, listQuery, nil, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalItems)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.CurrentPage)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "question 3", res.Items[0].Text)
	assert.Equal(t, 1, *res.PrevPage)
	assert.Equal(t, 3, *res.NextPage)

	res, err = p.PaginateQuery(ctx, listQuery, nil, 3, 2)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Nil(t, res.NextPage)
}

func TestPaginateQuery_Bounds(t *testing.T) {
	p := newQuestionPaginator(t, 3)
	ctx := context.Background()

	res, err := p.PaginateQuery(ctx, listQuery, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Nil(t, res.PrevPage)
	assert.Len(t, res.Items, 3)

	res, err = p.PaginateQuery(ctx, "SELECT id, text, kind, options FROM daily_questions WHERE text = ?", []any{"question 2"}, 1, MaxLimit+50)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalItems)
	assert.Equal(t, "question 2", res.Items[0].Text)
}

func TestPaginateQuery_Empty(t *testing.T) {
	p := newQuestionPaginator(t, 0)

	res, err := p.PaginateQuery(context.Background(), listQuery, nil, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, res.TotalItems)
	assert.Zero(t, res.TotalPages)
	assert.Empty(t, res.Items)
}
