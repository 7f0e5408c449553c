// Package term renders the board for the terminal.
package term

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA"))
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(44)
)

func colorStyle(c views.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
}

type column struct {
	title string
	width int
}

var entryColumns = []column{
	{"ID", 10},
	{"類型", 6},
	{"急迫性", 8},
	{"類別", 10},
	{"物品", 18},
	{"數量", 10},
	{"地點", 18},
	{"聯絡", 18},
	{"時間", 11},
	{"狀態", 8},
}

func cell(s string, width int, style lipgloss.Style) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return style.Width(width).MaxWidth(width).MaxHeight(1).Render(s)
}

// EntryTable renders entries, in the given order, one per line.
func EntryTable(entries []relief.Entry, loc *time.Location) string {
	if len(entries) == 0 {
		return mutedStyle.Render("沒有記錄")
	}
	if loc == nil {
		loc = time.Local
	}

	var rows []string
	head := make([]string, len(entryColumns))
	for i, c := range entryColumns {
		head[i] = cell(c.title, c.width, headStyle)
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, head...))

	for _, e := range entries {
		base := lipgloss.NewStyle()
		if !e.Active() {
			base = mutedStyle
		}
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		values := []string{
			cell(id, entryColumns[0].width, mutedStyle),
			cell(views.TypeText(e.Type), entryColumns[1].width, base),
			cell(views.UrgencyText(e.Urgency), entryColumns[2].width, colorStyle(views.UrgencyColor(e.Urgency))),
			cell(e.Category, entryColumns[3].width, base),
			cell(e.Item, entryColumns[4].width, base),
			cell(e.Quantity, entryColumns[5].width, base),
			cell(e.Location, entryColumns[6].width, base),
			cell(e.ContactInfo, entryColumns[7].width, base),
			cell(e.Time().In(loc).Format("1/2 15:04"), entryColumns[8].width, base),
			cell(views.StatusText(e.Status), entryColumns[9].width, base),
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, values...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// StatsLine renders the four board counters.
func StatsLine(s views.Stats) string {
	return fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
		headStyle.Render("需求"), s.TotalNeeds,
		headStyle.Render("提供"), s.TotalOffers,
		colorStyle(views.ColorRed).Render("緊急"), s.HighUrgency,
		colorStyle(views.ColorGreen).Render("已完成"), s.Completed)
}

// LocationCard renders one site with its support state, status text,
// contacts and needed items.
func LocationCard(l relief.Location) string {
	c := views.SupportColor(l.NeedsSupport)
	lines := []string{
		titleStyle.Render(l.Name) + "  " + colorStyle(c).Bold(true).Render(views.SupportText(l.NeedsSupport)),
		l.CurrentStatus,
	}
	if len(l.NeededItems) > 0 {
		lines = append(lines, headStyle.Render("所需物資: ")+strings.Join(l.NeededItems, "、"))
	}
	for _, ct := range l.Contacts {
		line := fmt.Sprintf("☎ %s %s", ct.Name, ct.Phone)
		if ct.Note != "" {
			line += mutedStyle.Render(" (" + ct.Note + ")")
		}
		lines = append(lines, line)
	}
	if u := views.MapURL(l.Name); u != "" {
		lines = append(lines, mutedStyle.Render(u))
	}
	lines = append(lines, mutedStyle.Render("id: "+l.ID))
	return cardStyle.BorderForeground(lipgloss.Color(c.Hex())).Render(strings.Join(lines, "\n"))
}

// LocationBoard renders the sites, in the given order, as stacked cards.
func LocationBoard(locations []relief.Location) string {
	if len(locations) == 0 {
		return mutedStyle.Render("沒有站點")
	}
	cards := make([]string, len(locations))
	for i, l := range locations {
		cards[i] = LocationCard(l)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// SummaryReport renders the category summary of active needs and offers.
func SummaryReport(s views.Summary) string {
	var b strings.Builder
	section := func(title string, total int, m map[string][]relief.Entry) {
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", title, total)))
		b.WriteString("\n")
		if total == 0 {
			b.WriteString(mutedStyle.Render("  沒有記錄"))
			b.WriteString("\n")
			return
		}
		for _, g := range views.Groups(m) {
			b.WriteString(headStyle.Render(fmt.Sprintf("  %s (%d)", g.Category, len(g.Entries))))
			b.WriteString("\n")
			for _, e := range g.Entries {
				fmt.Fprintf(&b, "    - %s %s @ %s %s\n", e.Item, e.Quantity, e.Location,
					colorStyle(views.UrgencyColor(e.Urgency)).Render(views.UrgencyText(e.Urgency)))
			}
		}
	}
	section("需求", s.TotalNeeds, s.Needs)
	b.WriteString("\n")
	section("提供", s.TotalOffers, s.Offers)
	return strings.TrimRight(b.String(), "\n")
}
