// Package main provides the studybot CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richinex/studybot/bot"
	"github.com/richinex/studybot/config"
	"github.com/richinex/studybot/llm"
	"github.com/richinex/studybot/logging"
	"github.com/richinex/studybot/panel"
	"github.com/richinex/studybot/storage"
	"github.com/richinex/studybot/telegram"
)

const version = "0.3.0"

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "studybot",
		Short: "Study-group Telegram bot with LLM-generated replies",
		Long: `A Telegram bot that answers study-group questions through a hosted
LLM provider, keeping a bounded per-chat conversation history, plus an
ops web panel for tailing logs and browsing archived transcripts.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot dispatcher and the ops web panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.New()
			if err != nil {
				return err
			}
			return serve(settings)
		},
	}
}

func serve(settings config.Settings) error {
	logger, err := logging.New(settings.LogsDir)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logger.Sync()

	provider, err := llm.NewProvider(
		settings.LLM.Provider,
		settings.LLM.APIKey,
		settings.LLM.Model,
		settings.LLM.MaxTokens,
		float32(settings.LLM.Temperature),
	)
	if err != nil {
		return fmt.Errorf("initializing provider: %w", err)
	}

	var archive *storage.TranscriptArchive
	if settings.Panel.TranscriptDB != "" {
		archive, err = storage.OpenTranscriptArchive(settings.Panel.TranscriptDB)
		if err != nil {
			return fmt.Errorf("opening transcript archive: %w", err)
		}
		defer archive.Close()
	}

	var recorder storage.TranscriptRecorder
	if archive != nil {
		recorder = archive
	}
	store := storage.NewConversations(storage.Options{
		Provider:          provider,
		SystemInstruction: bot.SystemInstruction,
		Capacity:          settings.History.Capacity,
		EvictBatch:        settings.History.EvictBatch,
		Timeout:           settings.LLM.Timeout,
		Recorder:          recorder,
		Logger:            logger,
	})

	// The HTTP client must outlive the long poll, so its timeout sits
	// above the poll timeout.
	client := telegram.NewClient(
		telegram.APIBase(settings.Telegram.Token),
		settings.Telegram.PollTimeout+10*time.Second,
	)
	me, err := client.GetMe()
	if err != nil {
		return fmt.Errorf("verifying bot token: %w", err)
	}
	logger.Info("bot authorized",
		zap.String("username", me.Username),
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()))

	dispatcher, err := bot.New(bot.Options{
		Client:        client,
		Me:            me,
		Conversations: store,
		ReplyModes:    storage.NewReplyModes(),
		ChatLogs:      logging.NewChatLogs(settings.LogsDir, logger),
		Logger:        logger,
		PollTimeout:   settings.Telegram.PollTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	running := 1
	go func() {
		errCh <- dispatcher.Run(ctx)
	}()

	var panelSrv *http.Server
	if settings.Panel.Password != "" {
		panelSrv = &http.Server{
			Addr: settings.Panel.Addr,
			Handler: panel.New(panel.Options{
				Password: settings.Panel.Password,
				Root:     settings.Panel.Root,
				LogsDir:  settings.LogsDir,
				Archive:  archive,
				Logger:   logger,
			}).Router(),
		}
		logger.Info("panel listening", zap.String("addr", settings.Panel.Addr))
		running++
		go func() {
			err := panelSrv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errCh <- err
		}()
	} else {
		logger.Info("panel disabled: PANEL_PASSWORD not set")
	}

	var errs []error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		// One of the two servers failed; take the rest down with it.
		errs = append(errs, err)
		running--
		stop()
	}
	logger.Info("shutting down")

	if panelSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = panelSrv.Shutdown(shutdownCtx)
	}
	for i := 0; i < running; i++ {
		errs = append(errs, <-errCh)
	}
	return errors.Join(errs...)
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.New()
			if err != nil {
				return err
			}
			provider, err := llm.NewProvider(
				settings.LLM.Provider,
				settings.LLM.APIKey,
				settings.LLM.Model,
				settings.LLM.MaxTokens,
				float32(settings.LLM.Temperature),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if settings.LLM.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, settings.LLM.Timeout)
				defer cancel()
			}

			resp, err := provider.Chat(ctx, []llm.ChatMessage{
				llm.SystemMessage(bot.SystemInstruction),
				llm.UserMessage(strings.Join(args, " ")),
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.Content)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the studybot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("studybot %s\n", version)
		},
	}
}
