package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenfun/histindex/internal/executor"
)

// Service is the ingestion and retrieval engine over a SQLiteStore. Every
// store operation is delegated to a bounded worker pool so storage I/O latency
// never stalls the caller's event dispatch. The delegating call always waits
// for the delegated work to complete; nothing is fire-and-forget.
type Service struct {
	store     *SQLiteStore
	pool      *executor.Pool
	score     ScoreFunc
	threshold int
	logger    zerolog.Logger
}

// NewService wires a search service over an initialized store. The similarity
// strategy, default threshold and logger come from the store's configuration.
func NewService(store *SQLiteStore, pool *executor.Pool) *Service {
	score := store.config.ScoreFn
	if score == nil {
		score = PartialRatio
	}
	threshold := store.config.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		store:     store,
		pool:      pool,
		score:     score,
		threshold: threshold,
		logger:    store.config.Logger,
	}
}

// Ingest normalizes and persists one captured message. It never reports
// failure to the caller: message capture must not disrupt the host's own
// event handling, so write errors are logged and swallowed. A message whose
// text and outline are both empty is dropped without creating a record.
func (s *Service) Ingest(ctx context.Context, rec Record) {
	text := strings.TrimSpace(rec.MessageText)
	outline := strings.TrimSpace(rec.MessageOutline)
	if text == "" && outline == "" {
		return
	}
	if text == "" {
		text = outline
	}
	if outline == "" {
		outline = text
	}
	rec.MessageText = text
	rec.MessageOutline = outline
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := s.pool.Do(func() error {
		return s.store.Insert(ctx, rec)
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("session_id", rec.SessionID).
			Str("platform_id", rec.PlatformID).
			Str("sender_id", rec.SenderID).
			Msg("failed to index message")
	}
}

// Stats reports aggregate store statistics for self-check purposes.
func (s *Service) Stats(ctx context.Context, sampleSize int) (Stats, error) {
	var st Stats
	err := s.pool.Do(func() error {
		var err error
		st, err = s.store.Stats(ctx, sampleSize)
		return err
	})
	return st, err
}
