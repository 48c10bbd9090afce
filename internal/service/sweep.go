package service

import (
	"context"
	"time"

	"bitwise74/recipe-api/internal/challenge"

	"go.uber.org/zap"
)

type ChallengeSweeper interface {
	SweepChallenges(ctx context.Context, kind challenge.Kind, now time.Time) (int64, error)
}

// SweepChallenges removes challenge records of both kinds that can no longer
// be answered
func SweepChallenges(ctx context.Context, s ChallengeSweeper, now time.Time) (int64, error) {
	var total int64

	for _, kind := range []challenge.Kind{challenge.EmailVerification, challenge.PasswordReset} {
		n, err := s.SweepChallenges(ctx, kind, now)
		if err != nil {
			return total, err
		}

		zap.L().Info("Swept expired challenges", zap.Stringer("kind", kind), zap.Int64("count", n))
		total += n
	}

	return total, nil
}
