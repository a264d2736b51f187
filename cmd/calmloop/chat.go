package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/calmloop-dev/calmloop"
	"github.com/calmloop-dev/calmloop/internal/journal"
	"github.com/calmloop-dev/calmloop/pkg/config"
	"github.com/calmloop-dev/calmloop/pkg/session"
	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

var (
	chatEmotion   string
	chatIntensity int
	chatUser      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to a session from the terminal",
	Long: `Start a single session and talk to it interactively. The session is
memory-only; when you leave (/end, Ctrl+D) it is finalized and the
derived journal entry is printed.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatEmotion, "emotion", "e", "stress", "how you're feeling (anxiety, stress, sadness, ...)")
	chatCmd.Flags().IntVarP(&chatIntensity, "intensity", "i", 5, "intensity from 1 to 10")
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "local", "user ID")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	adapter, err := calmloop.NewAdapter(ctx, cfg)
	if err != nil {
		return err
	}

	journalStore := journal.NewMemoryStore()
	reg := session.NewRegistry(cfg.Session,
		session.NewConversationStore(nil),
		therapy.NewResponder(rand.New(rand.NewSource(time.Now().UnixNano()))),
		session.RegistryOptions{
			Adapter:   adapter,
			Finalizer: journal.NewFinalizer(journalStore),
		},
	)

	sessionID := uuid.New().String()
	rec, err := reg.Initialize(ctx, sessionID, chatUser, therapy.Emotion(chatEmotion), chatIntensity)
	if err != nil {
		return err
	}

	fmt.Printf("calmloop> %s\n", rec.Log[0].Text)
	fmt.Println("(/end or Ctrl+D to finish)")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				break
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "/end" || input == "/quit" {
			break
		}
		line.AppendHistory(input)

		reply, err := reg.ProcessText(ctx, sessionID, input)
		if err != nil {
			return err
		}
		fmt.Printf("calmloop> %s\n", reply)
	}

	journalID, err := reg.End(context.Background(), sessionID)
	if err != nil {
		return err
	}
	if journalID == "" {
		return nil
	}

	entry, err := journalStore.Get(context.Background(), journalID)
	if err != nil {
		return fmt.Errorf("journal entry vanished: %w", err)
	}

	fmt.Printf("\n--- %s ---\n", entry.Title)
	fmt.Println(entry.Content)
	fmt.Printf("Sentiment: %s\n", entry.Meta.Sentiment)
	if len(entry.Meta.Themes) > 0 {
		fmt.Printf("Themes: %s\n", strings.Join(entry.Meta.Themes, ", "))
	}
	for _, insight := range entry.Meta.Insights {
		fmt.Printf("  * %s\n", insight)
	}
	return nil
}
