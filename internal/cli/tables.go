package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

const maxTextWidth = 48

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderBot(w io.Writer, bot *maxapi.BotInfo) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"User ID", bot.UserID})
	t.AppendRow(table.Row{"Name", bot.Name})
	t.AppendRow(table.Row{"Username", "@" + bot.Username})
	t.AppendRow(table.Row{"Is bot", bot.IsBot})
	if last, ok := bot.LastActivity(); ok {
		t.AppendRow(table.Row{"Last activity", last.UTC().Format(time.RFC3339)})
	}
	t.Render()
}

func renderSent(w io.Writer, sent *maxapi.SentMessage) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Message ID", "Timestamp"})
	t.AppendRow(table.Row{sent.MessageID, formatMillis(sent.Timestamp)})
	t.Render()
}

func renderUpdates(w io.Writer, result *maxapi.UpdatesResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Type", "Chat", "Sender", "Text"})
	for i := range result.Updates {
		u := &result.Updates[i]
		t.AppendRow(table.Row{u.UpdateType, u.GetChatID(), u.GetSenderID(), truncate(u.Text(), maxTextWidth)})
	}

	marker := "-"
	if result.Marker != nil {
		marker = fmt.Sprintf("%d", *result.Marker)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d updates", len(result.Updates)), "", "marker", marker})
	t.Render()
}

func renderSubscriptions(w io.Writer, subscriptions []maxapi.Subscription) {
	t := newTable(w)
	t.AppendHeader(table.Row{"URL", "Created", "Update types", "Version"})
	for _, sub := range subscriptions {
		types := "all"
		if len(sub.UpdateTypes) > 0 {
			types = strings.Join(sub.UpdateTypes, ", ")
		}
		t.AppendRow(table.Row{sub.URL, formatMillis(sub.Time), types, sub.Version})
	}
	t.Render()
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}
