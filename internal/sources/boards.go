package sources

import (
	"context"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/retry"
	"ats-aggregator/pkg/models"
)

// BoardFetcher loads the postings of one board or company.
type BoardFetcher func(ctx context.Context, board string) ([]models.Posting, error)

// CollectBoards fetches each board in turn. A board that fails is logged and
// skipped, unless the upstream rejected our credentials, which fails the whole
// search. If every board failed, the last error is returned.
func CollectBoards(ctx context.Context, logger logging.Logger, boards []string, fetch BoardFetcher) ([]models.Posting, error) {
	var (
		all     []models.Posting
		lastErr error
		failed  int
	)

	for _, board := range boards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		postings, err := fetch(ctx, board)
		if err != nil {
			if IsAuthFailure(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, errors.Wrapf(err, "board %s", board)
			}
			logger.Warn("board fetch failed, skipping", map[string]interface{}{
				"board": board,
				"error": err.Error(),
				"class": retry.ClassOf(err),
			})
			lastErr = errors.Wrapf(err, "board %s", board)
			failed++
			continue
		}
		all = append(all, postings...)
	}

	if len(boards) > 0 && failed == len(boards) {
		return nil, errors.WithHint(lastErr, "every configured board failed")
	}
	return all, nil
}

// IsAuthFailure reports whether err is an upstream 401 or 403.
func IsAuthFailure(err error) bool {
	var upstream *retry.UpstreamError
	return errors.As(err, &upstream) && upstream.Auth()
}
