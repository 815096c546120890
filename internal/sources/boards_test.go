package sources

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/retry"
	"ats-aggregator/pkg/models"
)

func TestCollectBoards_SkipsFailingBoards(t *testing.T) {
	logger, memory := logging.NewMemoryLogger()

	postings, err := CollectBoards(context.Background(), logger, []string{"good", "gone", "also-good"},
		func(_ context.Context, board string) ([]models.Posting, error) {
			if board == "gone" {
				return nil, retry.FromStatus("stub", "GET", http.StatusNotFound)
			}
			return []models.Posting{{SourceID: board}}, nil
		})

	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, "good", postings[0].SourceID)
	assert.Equal(t, "also-good", postings[1].SourceID)
	assert.Len(t, memory.Find("board fetch failed, skipping"), 1)
}

func TestCollectBoards_AuthFailureFailsSearch(t *testing.T) {
	logger, _ := logging.NewMemoryLogger()
	calls := 0

	_, err := CollectBoards(context.Background(), logger, []string{"a", "b"},
		func(context.Context, string) ([]models.Posting, error) {
			calls++
			return nil, retry.FromStatus("stub", "GET", http.StatusUnauthorized)
		})

	require.Error(t, err)
	assert.True(t, IsAuthFailure(err))
	assert.Equal(t, 1, calls)
}

func TestCollectBoards_AllFailed(t *testing.T) {
	logger, _ := logging.NewMemoryLogger()

	_, err := CollectBoards(context.Background(), logger, []string{"a", "b"},
		func(context.Context, string) ([]models.Posting, error) {
			return nil, retry.NewTransient("stub", "GET", errors.New("reset"))
		})
	require.Error(t, err)
	assert.True(t, retry.IsRetryable(err))

	postings, err := CollectBoards(context.Background(), logger, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, postings)
}
