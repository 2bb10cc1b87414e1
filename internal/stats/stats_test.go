package stats

import (
	"strings"
	"testing"
	"time"

	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/session"
)

func seed(t *testing.T) (*journal.Log, *session.Store) {
	t.Helper()
	l := journal.New(0)
	s := session.NewStore()
	s.Upsert(10, session.Fields{Username: session.String("first")})
	s.Upsert(20, session.Fields{Username: session.String("second")})
	return l, s
}

func TestCollectTotals(t *testing.T) {
	l, s := seed(t)
	l.Append(journal.Record{UserID: 10, Kind: journal.KindCommand, Content: "/start"})
	l.Append(journal.Record{UserID: 10, Kind: journal.KindMessage, Content: "hello"})
	last := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l.Append(journal.Record{UserID: 20, Kind: journal.KindMessage, Content: "hey", Timestamp: last})

	sum := Collect(l, s)
	if sum.TotalUsers != 2 {
		t.Fatalf("unexpected total users: %d", sum.TotalUsers)
	}
	if sum.TotalInteractions != 3 {
		t.Fatalf("unexpected total interactions: %d", sum.TotalInteractions)
	}
	if sum.MostActiveUser != 10 {
		t.Fatalf("unexpected most active user: %d", sum.MostActiveUser)
	}
	if !sum.LastInteraction.Equal(last) {
		t.Fatalf("unexpected last interaction: %v", sum.LastInteraction)
	}
}

func TestTiesGoToFirstEncountered(t *testing.T) {
	l, s := seed(t)
	// Users 10 and 20 tie at two interactions each; commands /start and
	// /help tie at one use each. The earlier arrival must win both.
	l.Append(journal.Record{UserID: 10, Kind: journal.KindCommand, Content: "/start"})
	l.Append(journal.Record{UserID: 20, Kind: journal.KindCommand, Content: "/help"})
	l.Append(journal.Record{UserID: 10, Kind: journal.KindMessage, Content: "a"})
	l.Append(journal.Record{UserID: 20, Kind: journal.KindMessage, Content: "b"})

	sum := Collect(l, s)
	if sum.MostActiveUser != 10 {
		t.Fatalf("tie broken wrong for users: %d", sum.MostActiveUser)
	}
	if sum.MostUsedCommand != "/start" {
		t.Fatalf("tie broken wrong for commands: %s", sum.MostUsedCommand)
	}
	if sum.CommandCounts[0].Command != "/start" || sum.CommandCounts[1].Command != "/help" {
		t.Fatalf("command tally reordered ties: %+v", sum.CommandCounts)
	}
}

func TestTopCommandsLimit(t *testing.T) {
	l, s := seed(t)
	for i, cmd := range []string{"/a", "/b", "/c", "/d", "/e", "/f"} {
		for j := 0; j <= i; j++ {
			l.Append(journal.Record{UserID: 10, Kind: journal.KindCommand, Content: cmd})
		}
	}

	sum := Collect(l, s)
	top := sum.TopCommands(5)
	if len(top) != 5 {
		t.Fatalf("unexpected top length: %d", len(top))
	}
	if top[0].Command != "/f" || top[0].Count != 6 {
		t.Fatalf("wrong leader: %+v", top[0])
	}

	formatted := sum.FormatCommandStats()
	if strings.Contains(formatted, "/a") {
		t.Fatalf("sixth command leaked into top-5 block:\n%s", formatted)
	}
	if !strings.Contains(formatted, "• /f: 6 times") {
		t.Fatalf("leader missing from block:\n%s", formatted)
	}
}

func TestRenderReportEmptyLog(t *testing.T) {
	l := journal.New(0)
	s := session.NewStore()

	report := Collect(l, s).RenderReport()
	for _, want := range []string{"Total Users: 0", "Most Active User ID: None", "Most Used Command: None", "No commands used yet", "No activity"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}
