package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// Console implementa ports.Notifier.
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

// NotifySummary imprime el agregado del ledger en el modo configurado.
func (c *Console) NotifySummary(_ context.Context, s domain.Summary) error {
	if !c.table {
		fmt.Fprintf(c.out, "[%s] bets:%d W:%d L:%d win%%:%.1f pnl:%+.4f\n",
			time.Now().Format("15:04:05"),
			s.TotalBets, s.Wins, s.Losses, s.WinRate()*100, s.TotalProfit)
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Total bets", "Wins", "Losses", "Win rate", "Total P&L")
	table.Append(
		fmt.Sprintf("%d", s.TotalBets),
		fmt.Sprintf("%d", s.Wins),
		fmt.Sprintf("%d", s.Losses),
		fmt.Sprintf("%.1f%%", s.WinRate()*100),
		fmt.Sprintf("%+.4f", s.TotalProfit),
	)
	table.Render()
	return nil
}
