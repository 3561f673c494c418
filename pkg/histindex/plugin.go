package histindex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zenfun/histindex/pkg/core"
)

// Event is one inbound platform message delivered by the hosting runtime.
type Event struct {
	ID         string    // host event id; assigned when empty
	SessionID  string    // unified conversation identifier
	PlatformID string    // origin platform tag, e.g. "qq", "discord"
	SenderID   string    // sender identifier, unique within a platform
	SenderName string    // display name at capture time
	Text       string    // plain-text content
	Outline    string    // summary for non-text content
	Timestamp  time.Time // capture time; now when zero
}

// Handler is the surface the hosting runtime drives. The core assumes nothing
// about how the host discovers or invokes it.
type Handler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Handle(ctx context.Context, ev Event)
}

// Plugin is a silent local history indexer: it captures every message event
// it is handed and answers retrieval queries through its Service.
type Plugin struct {
	config Config
	logger zerolog.Logger
	db     *DB
}

var _ Handler = (*Plugin)(nil)

// NewPlugin creates an unstarted plugin for the given configuration.
func NewPlugin(config Config) *Plugin {
	return &Plugin{config: config, logger: config.Logger}
}

// Start opens the index. A failure here must be surfaced to the host's own
// error reporting; the plugin is unusable without its store.
func (p *Plugin) Start(ctx context.Context) error {
	db, err := Open(ctx, p.config)
	if err != nil {
		return err
	}
	p.db = db
	SetDefault(db.Service())
	p.logger.Info().Str("path", p.config.Path).Msg("history indexer initialized")
	return nil
}

// Stop drains pending storage work and releases the index.
func (p *Plugin) Stop(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	SetDefault(nil)
	err := p.db.Close()
	p.db = nil
	return err
}

// Service returns the search service, or nil before Start.
func (p *Plugin) Service() *core.Service {
	if p.db == nil {
		return nil
	}
	return p.db.Service()
}

// Handle captures one message event. It never reports failure: capture must
// stay invisible to the host's event pipeline.
func (p *Plugin) Handle(ctx context.Context, ev Event) {
	if p.db == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	p.logger.Debug().
		Str("event_id", ev.ID).
		Str("session_id", ev.SessionID).
		Str("platform_id", ev.PlatformID).
		Msg("captured message event")

	p.db.Service().Ingest(ctx, core.Record{
		SessionID:      ev.SessionID,
		PlatformID:     ev.PlatformID,
		SenderID:       ev.SenderID,
		SenderName:     ev.SenderName,
		MessageText:    ev.Text,
		MessageOutline: ev.Outline,
		CreatedAt:      ev.Timestamp,
	})
}

// Probe renders an admin self-check report: index location, record count and
// either the best keyword hits or the most recent samples.
func (p *Plugin) Probe(ctx context.Context, keyword string) (string, error) {
	if p.db == nil {
		return "history indexer is not initialized", nil
	}

	stats, err := p.db.Service().Stats(ctx, 3)
	if err != nil {
		return "", err
	}
	if !stats.Exists {
		return "index database has not been created yet", nil
	}

	var b strings.Builder
	b.WriteString("history indexer self-check\n")
	fmt.Fprintf(&b, "- db: %s\n", p.config.Path)
	fmt.Fprintf(&b, "- total records: %d\n", stats.Total)
	if !stats.Latest.IsZero() {
		fmt.Fprintf(&b, "- latest record: %s\n", stats.Latest.Local().Format("2006-01-02 15:04:05 MST"))
	}

	keyword = strings.TrimSpace(keyword)
	switch {
	case keyword != "":
		matches, err := p.db.Service().SearchGlobal(ctx, keyword, core.SearchOptions{Limit: 5})
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			fmt.Fprintf(&b, "- keyword %q matched no records\n", keyword)
			break
		}
		fmt.Fprintf(&b, "- keyword %q matched %d records (showing up to 5):\n", keyword, len(matches))
		for _, m := range matches {
			sender := m.SenderName
			if sender == "" {
				sender = m.SenderID
			}
			snippet := m.MessageOutline
			if snippet == "" {
				snippet = m.MessageText
			}
			fmt.Fprintf(&b, "  - [%s] %s: %s\n",
				m.CreatedAt.Local().Format("01-02 15:04"), sender, truncate(snippet, 60))
		}
	case len(stats.Samples) > 0:
		fmt.Fprintf(&b, "- last %d records:\n", len(stats.Samples))
		for _, sample := range stats.Samples {
			fmt.Fprintf(&b, "  - [%s] %s: %s\n",
				sample.CreatedAt.Local().Format("01-02 15:04"), sample.SenderName, truncate(sample.Snippet, 60))
		}
	default:
		b.WriteString("- no records to show yet\n")
	}

	return b.String(), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
