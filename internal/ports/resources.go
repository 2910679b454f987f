package ports

import (
	"context"

	"github.com/holygrail/holygrail-web/internal/domain/model"
)

// ResourceBackend uploads study material and reads the leaderboard.
type ResourceBackend interface {
	UploadResource(ctx context.Context, in model.UploadInput) (model.Resource, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}
