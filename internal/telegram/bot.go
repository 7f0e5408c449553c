// Package telegram runs a Telegram bot that turns forwarded group messages
// into board entries and answers quick board queries.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/TobiSchelling/reliefboard/internal/extract"
	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

// listLimit caps the entries and sites listed in one reply.
const listLimit = 10

const helpText = `把需求或物資訊息轉發給我，我會自動整理並加到看板。

指令:
/list - 待處理的需求及提供
/sites - 需要支援的站點
/stats - 看板統計
/done <id> - 標記完成
/help - 顯示說明`

// Submitter extracts text and commits the resulting entries.
// *extract.Runner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, text string) ([]relief.Entry, error)
}

// Config holds the bot settings.
type Config struct {
	Token string
	// AllowedChats lists the chats the bot serves. It must not be empty.
	AllowedChats []int64
}

type Bot struct {
	api     *tgbotapi.BotAPI
	store   *store.Store
	submit  Submitter
	allowed []int64
}

// ErrNoAllowedChats is returned by New when no chat is allowed to use the bot.
var ErrNoAllowedChats = errors.New("no allowed Telegram chats configured")

// New connects to Telegram and creates a bot.
func New(cfg Config, st *store.Store, submit Submitter) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("no Telegram bot token configured")
	}
	if len(cfg.AllowedChats) == 0 {
		return nil, ErrNoAllowedChats
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:     api,
		store:   st,
		submit:  submit,
		allowed: cfg.AllowedChats,
	}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			if reply := b.handle(ctx, update.Message); reply != "" {
				b.sendMessage(update.Message.Chat.ID, reply)
			}
		}
	}
}

// handle returns the reply to one message, or "" to stay silent.
func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) string {
	if msg.Chat == nil || !b.isAllowed(msg.Chat.ID) {
		return ""
	}
	if msg.IsCommand() {
		return b.handleCommand(msg)
	}
	return b.handleMessage(ctx, msg)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start", "help":
		return helpText
	case "list":
		return b.handleList()
	case "sites":
		return b.handleSites()
	case "stats":
		s := views.ComputeStats(b.store.Entries())
		return fmt.Sprintf("需求 %d · 提供 %d · 緊急 %d · 已完成 %d", s.TotalNeeds, s.TotalOffers, s.HighUrgency, s.Completed)
	case "done":
		return b.handleDone(strings.TrimSpace(msg.CommandArguments()))
	default:
		return "未知指令，請用 /help 查看說明。"
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) string {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	entries, err := b.submit.Submit(ctx, text)
	switch {
	case errors.Is(err, extract.ErrBusy):
		return "正在分析另一則訊息，請稍後再試。"
	case errors.Is(err, extract.ErrNoProvider):
		return "未設定 AI 分析服務，無法處理訊息。"
	case errors.Is(err, store.ErrPersist):
		log.Printf("Entries from chat %d not saved: %v", msg.Chat.ID, err)
		return fmt.Sprintf("已新增 %d 項，但保存失敗。", len(entries))
	case err != nil:
		log.Printf("Extraction for chat %d failed: %v", msg.Chat.ID, err)
		return "分析失敗，請稍後再試。"
	}

	if len(entries) == 0 {
		return "訊息中沒有找到需求或提供。"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "已新增 %d 項:\n", len(entries))
	for _, e := range entries {
		sb.WriteString(entryLine(e))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) handleList() string {
	entries := views.FilterEntries(b.store.Entries(), views.Filter{Type: views.TypeAll, Status: views.StatusActive})
	if len(entries) == 0 {
		return "目前沒有待處理的項目。"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "待處理 %d 項:\n", len(entries))
	for i, e := range entries {
		if i == listLimit {
			fmt.Fprintf(&sb, "…還有 %d 項", len(entries)-listLimit)
			break
		}
		sb.WriteString(entryLine(e))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) handleSites() string {
	var sb strings.Builder
	n := 0
	for _, l := range views.SortLocations(b.store.Locations()) {
		k := l.NeedsSupport.Kind()
		if k != relief.SupportUrgent && k != relief.SupportPending {
			break
		}
		if n == listLimit {
			break
		}
		n++
		fmt.Fprintf(&sb, "%s【%s】%s\n", l.Name, views.SupportText(l.NeedsSupport), l.CurrentStatus)
		if len(l.NeededItems) > 0 {
			fmt.Fprintf(&sb, "  所需: %s\n", strings.Join(l.NeededItems, "、"))
		}
	}
	if n == 0 {
		return "目前沒有站點需要支援。"
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) handleDone(id string) string {
	if id == "" {
		return "用法: /done <id>"
	}
	e, ok := b.store.Entry(id)
	if !ok {
		return fmt.Sprintf("找不到項目 %s。", id)
	}
	if err := b.store.UpdateEntryStatus(id, relief.StatusCompleted); err != nil {
		log.Printf("Completing %s not saved: %v", id, err)
		return "已標記完成，但保存失敗。"
	}
	return fmt.Sprintf("已完成: %s %s", e.Item, e.Quantity)
}

func entryLine(e relief.Entry) string {
	return fmt.Sprintf("• [%s/%s] %s %s @ %s (id: %s)",
		views.TypeText(e.Type), views.UrgencyText(e.Urgency), e.Item, e.Quantity, e.Location, e.ID)
}

func (b *Bot) isAllowed(chatID int64) bool {
	return slices.Contains(b.allowed, chatID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
