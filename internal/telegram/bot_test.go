package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/TobiSchelling/reliefboard/internal/extract"
	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
)

// fakeSubmitter commits canned entries into a store.
type fakeSubmitter struct {
	st      *store.Store
	entries []relief.Entry
	err     error
	texts   []string
}

func (f *fakeSubmitter) Submit(_ context.Context, text string) ([]relief.Entry, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	if err := f.st.AddEntries(f.entries...); err != nil {
		return f.entries, err
	}
	return f.entries, nil
}

// newTestBot builds a bot serving chat 1 plus any extra allowed chats.
func newTestBot(t *testing.T, sub *fakeSubmitter, allowed ...int64) (*Bot, *store.Store) {
	t.Helper()
	n := 0
	st, err := store.Open(store.NewMemoryPersister(),
		store.WithClock(func() time.Time { return time.UnixMilli(1_764_200_000_000) }),
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	sub.st = st
	return &Bot{store: st, submit: sub, allowed: append([]int64{1}, allowed...)}, st
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	m := textMessage(chatID, text)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return m
}

func need(item string) relief.Entry {
	return relief.Entry{
		ID: "e-" + item, Type: relief.TypeNeed, Category: "食品", Item: item, Quantity: "10",
		Location: "大埔", ContactInfo: "無", Urgency: relief.UrgencyHigh, Status: relief.StatusPending,
	}
}

func TestHandleMessageExtracts(t *testing.T) {
	sub := &fakeSubmitter{entries: []relief.Entry{need("水")}}
	b, st := newTestBot(t, sub)

	reply := b.handle(context.Background(), textMessage(1, "大埔急需10箱水"))
	if !strings.Contains(reply, "已新增 1 項") || !strings.Contains(reply, "水") {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(sub.texts) != 1 || sub.texts[0] != "大埔急需10箱水" {
		t.Errorf("expected message text submitted, got %v", sub.texts)
	}
	if len(st.Entries()) != 1 {
		t.Error("expected entry on the board")
	}
}

func TestHandleMessageErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{extract.ErrBusy, "稍後再試"},
		{extract.ErrNoProvider, "未設定"},
		{errors.New("boom"), "分析失敗"},
	}
	for _, c := range cases {
		b, _ := newTestBot(t, &fakeSubmitter{err: c.err})
		if reply := b.handle(context.Background(), textMessage(1, "msg")); !strings.Contains(reply, c.want) {
			t.Errorf("%v: expected %q in reply, got %q", c.err, c.want, reply)
		}
	}
}

func TestHandleMessageNothingFound(t *testing.T) {
	b, _ := newTestBot(t, &fakeSubmitter{})
	if reply := b.handle(context.Background(), textMessage(1, "hello")); !strings.Contains(reply, "沒有找到") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestNewRequiresAllowedChats(t *testing.T) {
	_, err := New(Config{Token: "123:abc"}, nil, &fakeSubmitter{})
	if !errors.Is(err, ErrNoAllowedChats) {
		t.Errorf("expected ErrNoAllowedChats, got %v", err)
	}
}

func TestHandleDeniesWithoutAllowList(t *testing.T) {
	sub := &fakeSubmitter{entries: []relief.Entry{need("水")}}
	b, _ := newTestBot(t, sub)
	b.allowed = nil

	if reply := b.handle(context.Background(), textMessage(1, "msg")); reply != "" {
		t.Errorf("expected silence, got %q", reply)
	}
	if reply := b.handle(context.Background(), commandMessage(1, "/done e-水")); reply != "" {
		t.Errorf("expected silence, got %q", reply)
	}
	if len(sub.texts) != 0 {
		t.Error("expected no extraction without an allow list")
	}
}

func TestHandleIgnoresOtherChats(t *testing.T) {
	sub := &fakeSubmitter{entries: []relief.Entry{need("水")}}
	b, _ := newTestBot(t, sub, 42)

	if reply := b.handle(context.Background(), textMessage(7, "msg")); reply != "" {
		t.Errorf("expected silence, got %q", reply)
	}
	if len(sub.texts) != 0 {
		t.Error("expected no extraction for other chats")
	}
	if reply := b.handle(context.Background(), commandMessage(42, "/help")); reply != helpText {
		t.Errorf("expected help for allowed chat, got %q", reply)
	}
}

func TestListAndDoneCommands(t *testing.T) {
	b, st := newTestBot(t, &fakeSubmitter{})
	if err := st.AddEntries(need("米"), need("水")); err != nil {
		t.Fatal(err)
	}

	reply := b.handle(context.Background(), commandMessage(1, "/list"))
	if !strings.Contains(reply, "待處理 2 項") || !strings.Contains(reply, "e-米") {
		t.Errorf("unexpected list reply %q", reply)
	}

	reply = b.handle(context.Background(), commandMessage(1, "/done e-米"))
	if !strings.Contains(reply, "已完成") {
		t.Errorf("unexpected done reply %q", reply)
	}
	if e, _ := st.Entry("e-米"); e.Status != relief.StatusCompleted {
		t.Error("expected entry completed")
	}

	if reply := b.handle(context.Background(), commandMessage(1, "/done nope")); !strings.Contains(reply, "找不到") {
		t.Errorf("unexpected reply %q", reply)
	}
	if reply := b.handle(context.Background(), commandMessage(1, "/stats")); !strings.Contains(reply, "需求 1") || !strings.Contains(reply, "已完成 1") {
		t.Errorf("unexpected stats reply %q", reply)
	}
}

func TestListLimit(t *testing.T) {
	b, st := newTestBot(t, &fakeSubmitter{})
	for i := range listLimit + 3 {
		if err := st.AddEntries(need(fmt.Sprintf("item%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	reply := b.handle(context.Background(), commandMessage(1, "/list"))
	if !strings.Contains(reply, "還有 3 項") {
		t.Errorf("expected truncation note, got %q", reply)
	}
}

func TestSitesCommand(t *testing.T) {
	b, st := newTestBot(t, &fakeSubmitter{})
	if err := st.ReplaceLocations([]relief.Location{
		{ID: "a", Name: "OK站", NeedsSupport: relief.Sufficient()},
		{ID: "b", Name: "急站", NeedsSupport: relief.Urgent(), NeededItems: []string{"紙箱"}},
	}); err != nil {
		t.Fatal(err)
	}

	reply := b.handle(context.Background(), commandMessage(1, "/sites"))
	if !strings.Contains(reply, "急站【急需支援】") || !strings.Contains(reply, "紙箱") {
		t.Errorf("unexpected reply %q", reply)
	}
	if strings.Contains(reply, "OK站") {
		t.Error("expected sufficient sites left out")
	}
}

func TestUnknownCommand(t *testing.T) {
	b, _ := newTestBot(t, &fakeSubmitter{})
	if reply := b.handle(context.Background(), commandMessage(1, "/nope")); !strings.Contains(reply, "未知指令") {
		t.Errorf("unexpected reply %q", reply)
	}
}
