package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/observability"
	"github.com/tbourn/rentald/internal/oracle"
	"github.com/tbourn/rentald/internal/repo"
)

// expiryBatch caps how many requests one sweep cancels.
const expiryBatch = 100

// ExpireRequests cancels pending requests whose expiration passed. Each one
// is marked expired, its fee is refunded from the oracle account to the
// contract and ChainlinkCancelled is emitted. It returns how many requests
// were cancelled. A request whose refund fails is left pending and retried
// on the next sweep. Expired idempotency keys are dropped on the way out.
func (s *RentalService) ExpireRequests(ctx context.Context) (int, error) {
	now := s.now()
	due, err := repo.ListExpiredPending(ctx, s.DB, now, expiryBatch)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, req := range due {
		ev, err := s.expireOne(ctx, req.ID, now)
		if errors.Is(err, repo.ErrNotPending) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("request_id", req.ID).Msg("request expiry failed")
			continue
		}
		n++
		observability.ExpiredRequests.Inc()
		observability.PendingRequests.Dec()
		s.publish(ctx, []domain.Event{*ev})
	}
	if n > 0 {
		log.Info().Int("expired", n).Msg("oracle requests expired")
	}

	if purged, err := repo.PurgeIdempotency(ctx, s.DB, now); err != nil {
		log.Warn().Err(err).Msg("idempotency purge failed")
	} else if purged > 0 {
		log.Debug().Int64("purged", purged).Msg("expired idempotency keys removed")
	}
	return n, nil
}

func (s *RentalService) expireOne(ctx context.Context, id string, now time.Time) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ev *domain.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := repo.GetRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := repo.MarkExpired(ctx, tx, id, now); err != nil {
			return err
		}
		st, err := repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.Ledger.Transfer(ctx, tx, domain.AssetFeeToken, st.Oracle, st.Address, req.Payment); err != nil {
			return err
		}
		ev, err = repo.AppendEvent(ctx, tx, oracle.EventChainlinkCancelled, id, oracle.IDEvent{ID: id})
		return err
	})
	return ev, err
}

// ExpiryWorker periodically runs ExpireRequests.
type ExpiryWorker struct {
	Service  *RentalService
	Interval time.Duration
}

// Run sweeps until ctx is cancelled. A non-positive interval disables the
// worker and Run returns immediately.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	if w.Interval <= 0 {
		return nil
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := w.Service.ExpireRequests(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}
