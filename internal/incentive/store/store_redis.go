package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"campuspulse/internal/incentive"
	platformredis "campuspulse/internal/platform/redis"
	"campuspulse/pkg/domain"
)

const leaderboardKey = "campuspulse:leaderboard"

// Primary is the durable balance store a LeaderboardCache decorates.
type Primary interface {
	Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error)
	Balance(ctx context.Context, participantID domain.ParticipantID) (int, error)
	TopN(ctx context.Context, n int) ([]*incentive.Balance, error)
}

// LeaderboardCache layers a Redis sorted set over the primary store so TopN
// does not hit the database on every leaderboard request. Awards write through
// to the primary first; the cache is fail-open, so a Redis outage degrades to
// primary reads rather than failing the request.
type LeaderboardCache struct {
	primary Primary
	client  *platformredis.Client
	logger  *slog.Logger
}

func NewLeaderboardCache(primary Primary, client *platformredis.Client, logger *slog.Logger) *LeaderboardCache {
	return &LeaderboardCache{
		primary: primary,
		client:  client,
		logger:  logger,
	}
}

// Award writes through to the primary store and mirrors the new total into
// the sorted set. The mirror uses the returned total rather than an
// increment, so a replayed mirror cannot drift from the primary.
func (c *LeaderboardCache) Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error) {
	points, err := c.primary.Award(ctx, participantID, amount)
	if err != nil {
		return 0, err
	}
	if err := c.client.ZAdd(ctx, leaderboardKey, redisMember(participantID, points)).Err(); err != nil {
		c.logger.WarnContext(ctx, "leaderboard cache update failed",
			"participant_id", participantID,
			"error", err,
		)
	}
	return points, nil
}

// Balance reads from the primary store; the cache only serves rankings.
func (c *LeaderboardCache) Balance(ctx context.Context, participantID domain.ParticipantID) (int, error) {
	return c.primary.Balance(ctx, participantID)
}

// TopN serves the leaderboard from the sorted set, falling back to the
// primary store when the set is empty or Redis is unavailable. Entries with
// equal scores come back re-sorted by participant ID ascending, matching the
// primary's ordering.
func (c *LeaderboardCache) TopN(ctx context.Context, n int) ([]*incentive.Balance, error) {
	members, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n)-1).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "leaderboard cache read failed", "error", err)
		return c.primary.TopN(ctx, n)
	}
	if len(members) == 0 {
		return c.primary.TopN(ctx, n)
	}

	out := make([]*incentive.Balance, 0, len(members))
	for _, m := range members {
		raw, ok := m.Member.(string)
		if !ok {
			return c.primary.TopN(ctx, n)
		}
		participantID, err := domain.ParseParticipantID(raw)
		if err != nil {
			return c.primary.TopN(ctx, n)
		}
		out = append(out, &incentive.Balance{
			ParticipantID: participantID,
			Points:        int(m.Score),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ParticipantID.String() < out[j].ParticipantID.String()
	})
	return out, nil
}

func redisMember(participantID domain.ParticipantID, points int) redis.Z {
	return redis.Z{Score: float64(points), Member: participantID.String()}
}
