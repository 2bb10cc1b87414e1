package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/session"
)

// Summary aggregates the interaction log and the session store.
type Summary struct {
	TotalUsers        int
	TotalInteractions int
	MostActiveUser    int64
	MostUsedCommand   string
	CommandCounts     []CommandCount
	LastInteraction   time.Time
}

// CommandCount is one command's usage tally.
type CommandCount struct {
	Command string
	Count   int
}

// Collect walks the journal in append order and combines it with the
// session store. Ties for most-used command and most-active user are
// broken by first encounter, which follows insertion order.
func Collect(log *journal.Log, store *session.Store) Summary {
	records := log.All()

	s := Summary{
		TotalUsers:        store.Len(),
		TotalInteractions: len(records),
	}
	if len(records) > 0 {
		s.LastInteraction = records[len(records)-1].Timestamp
	}

	userCounts := make(map[int64]int)
	var userOrder []int64
	commandCounts := make(map[string]int)
	var commandOrder []string

	for _, rec := range records {
		if _, seen := userCounts[rec.UserID]; !seen {
			userOrder = append(userOrder, rec.UserID)
		}
		userCounts[rec.UserID]++
		if rec.Kind == journal.KindCommand {
			if _, seen := commandCounts[rec.Content]; !seen {
				commandOrder = append(commandOrder, rec.Content)
			}
			commandCounts[rec.Content]++
		}
	}

	best := 0
	for _, id := range userOrder {
		if userCounts[id] > best {
			best = userCounts[id]
			s.MostActiveUser = id
		}
	}

	best = 0
	for _, cmd := range commandOrder {
		if commandCounts[cmd] > best {
			best = commandCounts[cmd]
			s.MostUsedCommand = cmd
		}
	}

	s.CommandCounts = make([]CommandCount, 0, len(commandOrder))
	for _, cmd := range commandOrder {
		s.CommandCounts = append(s.CommandCounts, CommandCount{Command: cmd, Count: commandCounts[cmd]})
	}
	// Descending by count; first-encountered order already breaks ties
	// because the sort is stable.
	sort.SliceStable(s.CommandCounts, func(i, j int) bool {
		return s.CommandCounts[i].Count > s.CommandCounts[j].Count
	})

	return s
}

// TopCommands returns up to n entries from the sorted command tallies.
func (s Summary) TopCommands(n int) []CommandCount {
	if n > len(s.CommandCounts) {
		n = len(s.CommandCounts)
	}
	return s.CommandCounts[:n]
}

// FormatCommandStats renders the top-5 command usage block of /stats.
func (s Summary) FormatCommandStats() string {
	if len(s.CommandCounts) == 0 {
		return "No commands used yet"
	}
	var lines []string
	for _, cc := range s.TopCommands(5) {
		lines = append(lines, fmt.Sprintf("• %s: %d times", cc.Command, cc.Count))
	}
	return strings.Join(lines, "\n")
}

// RenderReport builds the body of the /stats reply and the daily report.
func (s Summary) RenderReport() string {
	mostActive := "None"
	if s.MostActiveUser != 0 {
		mostActive = fmt.Sprintf("%d", s.MostActiveUser)
	}
	mostUsed := s.MostUsedCommand
	if mostUsed == "" {
		mostUsed = "None"
	}
	last := "No activity"
	if !s.LastInteraction.IsZero() {
		last = s.LastInteraction.Format(time.RFC3339)
	}
	return fmt.Sprintf(`📊 <b>Bot Statistics</b>

<b>General Stats:</b>
• Total Users: %d
• Total Interactions: %d
• Most Active User ID: %s
• Most Used Command: %s

<b>Command Usage:</b>
%s

<b>Recent Activity:</b>
• Last interaction: %s`,
		s.TotalUsers, s.TotalInteractions, mostActive, mostUsed, s.FormatCommandStats(), last)
}
