package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zenfun/histindex/pkg/core"
	"github.com/zenfun/histindex/pkg/histindex"
)

const ingestConcurrency = 2

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "histindex",
	Short: "Local chat history index with fuzzy search",
	Long:  `Records chat messages into a local SQLite index and answers fuzzy retrieval queries over it.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the index database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Printf("History index initialized at %s\n", dbPath)
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Record one message, or a JSONL file of messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if file != "" {
			return ingestFile(cmd.Context(), db.Service(), file)
		}

		session, _ := cmd.Flags().GetString("session")
		platform, _ := cmd.Flags().GetString("platform")
		sender, _ := cmd.Flags().GetString("sender")
		senderName, _ := cmd.Flags().GetString("sender-name")
		text, _ := cmd.Flags().GetString("text")
		outline, _ := cmd.Flags().GetString("outline")

		if strings.TrimSpace(text) == "" && strings.TrimSpace(outline) == "" {
			return fmt.Errorf("either --text or --outline is required")
		}
		if session == "" {
			session = uuid.NewString()
		}

		db.Service().Ingest(cmd.Context(), core.Record{
			SessionID:      session,
			PlatformID:     platform,
			SenderID:       sender,
			SenderName:     senderName,
			MessageText:    text,
			MessageOutline: outline,
		})

		fmt.Printf("Recorded 1 message in session %s\n", session)
		return nil
	},
}

var (
	searchSessions  []string
	searchPlatforms []string
	searchSenders   []string
	searchLimit     int
	searchThreshold int
	searchTextOnly  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Fuzzy-search recorded messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		matches, err := db.Service().Search(cmd.Context(), args[0], core.SearchOptions{
			Sessions:  searchSessions,
			Platforms: searchPlatforms,
			Senders:   searchSenders,
			Limit:     searchLimit,
			Threshold: searchThreshold,
			TextOnly:  searchTextOnly,
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(matches) == 0 {
			fmt.Println("No records matched.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%3d  %s\n", m.Score, m.FormatLine())
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [keyword]",
	Short: "Run the index self-check report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := histindex.DefaultConfig(dbPath)
		config.Logger = newLogger()

		plugin := histindex.NewPlugin(config)
		if err := plugin.Start(cmd.Context()); err != nil {
			return err
		}
		defer func() { _ = plugin.Stop(cmd.Context()) }()

		keyword := ""
		if len(args) > 0 {
			keyword = args[0]
		}
		report, err := plugin.Probe(cmd.Context(), keyword)
		if err != nil {
			return fmt.Errorf("self-check failed: %w", err)
		}

		fmt.Println(report)
		return nil
	},
}

// messageLine mirrors the stored record shape for JSONL bulk ingestion.
type messageLine struct {
	SessionID  string `json:"session_id"`
	PlatformID string `json:"platform_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"message_text"`
	Outline    string `json:"message_outline"`
	CreatedAt  int64  `json:"created_at"`
}

func ingestFile(ctx context.Context, svc *core.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	lines := make(chan messageLine)
	var total atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < ingestConcurrency; i++ {
		g.Go(func() error {
			for msg := range lines {
				rec := core.Record{
					SessionID:      msg.SessionID,
					PlatformID:     msg.PlatformID,
					SenderID:       msg.SenderID,
					SenderName:     msg.SenderName,
					MessageText:    msg.Text,
					MessageOutline: msg.Outline,
				}
				if msg.CreatedAt > 0 {
					rec.CreatedAt = time.Unix(msg.CreatedAt, 0).UTC()
				}
				svc.Ingest(ctx, rec)
				total.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			raw := strings.TrimSpace(scanner.Text())
			if raw == "" {
				continue
			}
			var msg messageLine
			if err := json.Unmarshal([]byte(raw), &msg); err != nil {
				return fmt.Errorf("invalid message line: %w", err)
			}
			select {
			case lines <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return scanner.Err()
	})

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Recorded %d messages from %s\n", total.Load(), path)
	return nil
}

func newLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func openDB(ctx context.Context) (*histindex.DB, error) {
	config := histindex.DefaultConfig(dbPath)
	config.Logger = newLogger()

	db, err := histindex.Open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return db, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "history_index.db", "Database file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	ingestCmd.Flags().String("file", "", "JSONL file of messages to ingest")
	ingestCmd.Flags().String("session", "", "Session id (generated when empty)")
	ingestCmd.Flags().String("platform", "cli", "Origin platform id")
	ingestCmd.Flags().String("sender", "local", "Sender id")
	ingestCmd.Flags().String("sender-name", "", "Sender display name")
	ingestCmd.Flags().String("text", "", "Message text")
	ingestCmd.Flags().String("outline", "", "Message outline for non-text content")

	searchCmd.Flags().StringSliceVar(&searchSessions, "session", nil, "Restrict to session ids")
	searchCmd.Flags().StringSliceVar(&searchPlatforms, "platform", nil, "Restrict to platform ids")
	searchCmd.Flags().StringSliceVar(&searchSenders, "sender", nil, "Restrict to sender ids")
	searchCmd.Flags().IntVar(&searchLimit, "limit", core.DefaultLimit, "Maximum results")
	searchCmd.Flags().IntVar(&searchThreshold, "threshold", core.DefaultThreshold, "Minimum similarity score (0-100)")
	searchCmd.Flags().BoolVar(&searchTextOnly, "text-only", false, "Match message text only, skip outlines")

	rootCmd.AddCommand(initCmd, ingestCmd, searchCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
