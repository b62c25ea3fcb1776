package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console imprime el estado de la plataforma en tablas legibles: eventos
// activos, historial de apuestas y estado del bridge.
type Console struct {
	out io.Writer
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintEvents imprime la tabla de eventos activos.
func (c *Console) PrintEvents(events []domain.Event) {
	if len(events) == 0 {
		fmt.Fprintf(c.out, "[%s] no active events\n", time.Now().Format("15:04:05"))
		return
	}

	fmt.Fprintf(c.out, "\n=== ACTIVE EVENTS (%d) ===\n", len(events))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Title", "Category", "Ends", "Status")

	for i, e := range events {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(e.Title, 48),
			e.Category,
			e.EndsAt.Format("2006-01-02"),
			eventStatus(e),
		)
	}
	table.Render()
}

// PrintHistory imprime el historial de apuestas de un usuario. events mapea
// event id a su evento para enriquecer cada fila.
func (c *Console) PrintHistory(user domain.User, bets []domain.Bet, events map[string]domain.Event) {
	fmt.Fprintf(c.out, "\n=== BETTING HISTORY %s (balance %d) ===\n", user.Username, user.Balance)

	if len(bets) == 0 {
		fmt.Fprintln(c.out, "  no bets yet")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Event", "Prediction", "Stake", "Outcome", "Payout")

	for i, b := range bets {
		title := b.EventID
		payout := "-"
		if e, ok := events[b.EventID]; ok {
			title = truncate(e.Title, 40)
			if b.Outcome == domain.OutcomeWon {
				payout = fmt.Sprintf("+%d", b.Payout(e.CorrectAnswer))
			}
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			title,
			string(b.Prediction),
			fmt.Sprintf("%d", b.Amount),
			b.Outcome.String(),
			payout,
		)
	}
	table.Render()
}

// PrintBridgeStatus imprime una línea con el estado del ledger externo.
func (c *Console) PrintBridgeStatus(bridged, available bool, tick, balance int64) {
	now := time.Now().Format("15:04:05")
	if !bridged {
		fmt.Fprintf(c.out, "[%s] bridge: disabled (local store only)\n", now)
		return
	}
	if !available {
		fmt.Fprintf(c.out, "[%s] bridge: UNREACHABLE\n", now)
		return
	}
	fmt.Fprintf(c.out, "[%s] bridge: ok (tick %d, contract balance %d)\n", now, tick, balance)
}

func eventStatus(e domain.Event) string {
	switch {
	case e.Resolved:
		return "RESOLVED " + string(e.CorrectAnswer)
	case e.Active:
		return "OPEN"
	}
	return "CLOSED"
}

// truncate corta un string largo para que la tabla no se desborde.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
