package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// Console implementa ports.Notifier pintando una tabla por símbolo.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify repinta el estado de todos los runners.
func (c *Console) Notify(_ context.Context, snapshots []ports.RunnerSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if c.table {
		c.printTable(snapshots)
	} else {
		c.printCompact(snapshots)
	}
	return nil
}

// printCompact imprime una línea por símbolo.
func (c *Console) printCompact(snapshots []ports.RunnerSnapshot) {
	now := time.Now().Format("15:04:05")
	var sb strings.Builder

	for i, s := range snapshots {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%s] %-4s", now, strings.ToUpper(s.Symbol))
		if s.Slug == "" {
			fmt.Fprintf(&sb, " %s", s.Status)
			continue
		}
		fmt.Fprintf(&sb, " %s | Y:%.1f@%.3f N:%.1f@%.3f | pair %.3f | imb %+.1f | lock $%.2f | %s",
			timeLeftLabel(s.EndDate),
			s.QtyYES, s.AvgYES, s.QtyNO, s.AvgNO,
			s.PairCost(), s.Imbalance, s.LockedProfit, s.Status)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printTable imprime la tabla completa con una fila por símbolo.
func (c *Console) printTable(snapshots []ports.RunnerSnapshot) {
	fmt.Fprintf(c.out, "\n[%s] hedging %d symbol(s)\n", time.Now().Format("15:04:05"), len(snapshots))

	table := tablewriter.NewWriter(c.out)
	table.Header("Sym", "Market", "Ends", "Ask Y/N", "Pair", "Qty Y/N", "Avg Y/N", "Imb", "Expo$", "Lock$", "Trades", "Status")

	for _, s := range snapshots {
		table.Append(
			strings.ToUpper(s.Symbol),
			marketLabel(s),
			timeLeftLabel(s.EndDate),
			fmt.Sprintf("%.3f/%.3f", s.AskYES, s.AskNO),
			pairLabel(s),
			fmt.Sprintf("%.1f/%.1f", s.QtyYES, s.QtyNO),
			fmt.Sprintf("%.3f/%.3f", s.AvgYES, s.AvgNO),
			fmt.Sprintf("%+.1f", s.Imbalance),
			fmt.Sprintf("%.2f", s.Exposure),
			fmt.Sprintf("%.2f", s.LockedProfit),
			fmt.Sprintf("%d/%d", s.Trades, s.TradesTotal),
			truncate(s.Status, 40),
		)
	}

	table.Render()

	for _, s := range snapshots {
		if s.LastError != "" {
			fmt.Fprintf(c.out, "  !! %s: %s\n", strings.ToUpper(s.Symbol), truncate(s.LastError, 90))
		}
	}
}

// --- helpers ---

func marketLabel(s ports.RunnerSnapshot) string {
	if s.Question != "" {
		return truncate(s.Question, 32)
	}
	if s.Slug != "" {
		return truncate(s.Slug, 32)
	}
	return "-"
}

// pairLabel marca con * cuando la suma de asks está bajo paridad.
func pairLabel(s ports.RunnerSnapshot) string {
	pair := s.PairCost()
	if pair <= 0 {
		return "-"
	}
	if pair < 1.0 {
		return fmt.Sprintf("%.3f *", pair)
	}
	return fmt.Sprintf("%.3f", pair)
}

func timeLeftLabel(end time.Time) string {
	if end.IsZero() {
		return "-"
	}
	left := time.Until(end)
	if left <= 0 {
		return "ended"
	}
	return fmt.Sprintf("%dm%02ds", int(left.Minutes()), int(left.Seconds())%60)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
