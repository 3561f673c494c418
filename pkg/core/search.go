package core

import (
	"context"
	"sort"
	"strings"
)

// Search ranks stored records against keyword within the given scope.
//
// A keyword is mandatory for fuzzy search: an empty or whitespace-only keyword
// yields an empty result, never an error. The store is consulted through a
// cheap structural pre-filter (containment of the keyword's first character
// combined with the scope constraints, capped at 200 candidates by recency);
// the surviving candidates are then scored with the similarity strategy,
// thresholded, and sorted by score descending with created_at descending as
// the tie break.
func (s *Service) Search(ctx context.Context, keyword string, opts SearchOptions) ([]ScoredRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []ScoredRecord{}, nil
	}
	if opts.Threshold <= 0 {
		opts.Threshold = s.threshold
	}
	opts = opts.normalized()

	// Deliberately low-selectivity pre-filter: first character only, not the
	// full keyword. The full keyword is matched fuzzily afterwards.
	pattern := "%" + string([]rune(keyword)[0]) + "%"
	filter := ScanFilter{
		Sessions:  opts.Sessions,
		Platforms: opts.Platforms,
		Senders:   opts.Senders,
		TextLike:  pattern,
		TextOnly:  opts.TextOnly,
	}

	var scored []ScoredRecord
	err := s.pool.Do(func() error {
		candidates, err := s.store.Scan(ctx, filter, prefilterCap)
		if err != nil {
			return err
		}
		for _, rec := range candidates {
			score := s.score(keyword, rec.MessageText)
			if !opts.TextOnly && rec.MessageOutline != "" {
				if outlineScore := s.score(keyword, rec.MessageOutline); outlineScore > score {
					score = outlineScore
				}
			}
			if score >= opts.Threshold {
				scored = append(scored, ScoredRecord{Record: rec, Score: score})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})

	if len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored, nil
}

// SearchBySession searches within a single session.
func (s *Service) SearchBySession(ctx context.Context, sessionID, keyword string, opts SearchOptions) ([]ScoredRecord, error) {
	opts.Sessions = []string{sessionID}
	return s.Search(ctx, keyword, opts)
}

// SearchAcrossSessions searches within an explicit set of sessions.
func (s *Service) SearchAcrossSessions(ctx context.Context, sessionIDs []string, keyword string, opts SearchOptions) ([]ScoredRecord, error) {
	opts.Sessions = sessionIDs
	return s.Search(ctx, keyword, opts)
}

// SearchByPlatform searches within one or more origin platforms.
func (s *Service) SearchByPlatform(ctx context.Context, platformIDs []string, keyword string, opts SearchOptions) ([]ScoredRecord, error) {
	opts.Platforms = platformIDs
	return s.Search(ctx, keyword, opts)
}

// SearchBySender searches messages from one sender, optionally restricted to
// a single platform (platformID "" means any platform).
func (s *Service) SearchBySender(ctx context.Context, senderID, platformID, keyword string, opts SearchOptions) ([]ScoredRecord, error) {
	opts.Senders = []string{senderID}
	if platformID != "" {
		opts.Platforms = []string{platformID}
	}
	return s.Search(ctx, keyword, opts)
}

// SearchGlobal searches without any session, platform or sender constraint.
func (s *Service) SearchGlobal(ctx context.Context, keyword string, opts SearchOptions) ([]ScoredRecord, error) {
	opts.Sessions = nil
	opts.Platforms = nil
	opts.Senders = nil
	return s.Search(ctx, keyword, opts)
}
