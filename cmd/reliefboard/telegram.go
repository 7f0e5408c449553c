package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/reliefboard/internal/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram intake bot",
	Long:  "Poll Telegram for forwarded messages, extract entries from them onto the board, and answer /list, /sites, /stats and /done commands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, st, err := openBoard()
		if err != nil {
			return err
		}
		defer db.Close()

		bot, err := telegram.New(telegram.Config{
			Token:        cfg.Telegram.Token(),
			AllowedChats: cfg.Telegram.AllowedChats,
		}, st, newRunner(st))
		if errors.Is(err, telegram.ErrNoAllowedChats) {
			return fmt.Errorf("starting bot: %w (add chat ids to telegram.allowed_chats)", err)
		}
		if err != nil {
			return fmt.Errorf("starting bot (set %s): %w", cfg.Telegram.TokenEnv, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Println("Bot running. Press Ctrl+C to stop")
		return bot.Run(ctx)
	},
}
