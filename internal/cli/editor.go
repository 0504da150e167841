package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gochicken/internal/staging"
	"gochicken/pkg/rupiah"
)

const editorHelp = `commands:
  + <row> [amount]   stage an increase (default 1)
  - <row> [amount]   stage a decrease (default 1)
  list               show the stock list with pending changes
  review             show the pending changes before committing
  back               leave review and keep editing
  commit             save all pending changes
  discard            drop all pending changes
  refresh            re-fetch the stock list, keeping pending changes
  quit               leave (twice when changes are pending)`

// editor is the interactive loop behind `stockctl edit`.
type editor struct {
	s          *staging.Session
	in         *bufio.Scanner
	out        io.Writer
	quitWarned bool
}

func newEditor(s *staging.Session, in io.Reader, out io.Writer) *editor {
	return &editor{s: s, in: bufio.NewScanner(in), out: out}
}

func (e *editor) Run(ctx context.Context) error {
	if err := printRows(e.out, e.s); err != nil {
		return err
	}
	fmt.Fprintln(e.out, `type "help" for commands`)

	for {
		e.prompt()
		if !e.in.Scan() {
			return e.in.Err()
		}
		done, err := e.exec(ctx, strings.Fields(e.in.Text()))
		if err != nil {
			fmt.Fprintln(e.out, "error:", err)
		}
		if done {
			return nil
		}
	}
}

func (e *editor) prompt() {
	badge := ""
	if n := e.s.Pending(); n > 0 {
		badge = fmt.Sprintf(" [%d pending]", n)
	}
	fmt.Fprintf(e.out, "%s%s> ", e.s.State(), badge)
}

func (e *editor) exec(ctx context.Context, fields []string) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	cmd := fields[0]
	if cmd != "quit" && cmd != "q" {
		e.quitWarned = false
	}

	switch cmd {
	case "+", "-":
		return false, e.stage(cmd, fields[1:])
	case "list", "l":
		return false, printRows(e.out, e.s)
	case "review", "r":
		changes, err := e.s.Review()
		if err != nil {
			return false, err
		}
		if len(changes) == 0 {
			fmt.Fprintln(e.out, "no pending changes")
			return false, nil
		}
		if err := printChanges(e.out, changes); err != nil {
			return false, err
		}
		fmt.Fprintln(e.out, `"commit" to save, "back" to keep editing`)
	case "back", "b":
		e.s.CancelReview()
	case "commit", "c":
		n := e.s.Pending()
		if err := e.s.Commit(ctx); err != nil {
			var ce *staging.CommitError
			if errors.As(err, &ce) {
				return false, fmt.Errorf("%d of %d updates failed, all changes kept: %w", ce.Failed, ce.Total, ce.Err)
			}
			return false, err
		}
		if n == 0 {
			fmt.Fprintln(e.out, "nothing to commit")
			return false, nil
		}
		fmt.Fprintf(e.out, "committed %d change(s)\n", n)
		return false, printRows(e.out, e.s)
	case "discard", "d":
		if err := e.s.DiscardAll(); err != nil {
			return false, err
		}
		fmt.Fprintln(e.out, "pending changes discarded")
	case "refresh":
		if err := e.s.Refresh(ctx); err != nil {
			return false, err
		}
		return false, printRows(e.out, e.s)
	case "help", "h", "?":
		fmt.Fprintln(e.out, editorHelp)
	case "quit", "q":
		if e.s.HasPendingChanges() && !e.quitWarned {
			e.quitWarned = true
			fmt.Fprintf(e.out, "%d pending change(s) will be lost, quit again to confirm\n", e.s.Pending())
			return false, nil
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func (e *editor) stage(sign string, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: %s <row> [amount]", sign)
	}
	rows := e.s.Rows()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(rows) {
		return fmt.Errorf("row must be between 1 and %d", len(rows))
	}
	amount := 1
	if len(args) == 2 {
		amount, err = strconv.Atoi(args[1])
		if err != nil || amount < 1 {
			return fmt.Errorf("amount must be a positive number")
		}
	}
	if sign == "-" {
		amount = -amount
	}

	row := rows[n-1]
	applied, err := e.s.Stage(row.ID, amount)
	if err != nil {
		return err
	}
	qty, _ := e.s.Quantity(row.ID)
	if !applied {
		fmt.Fprintf(e.out, "%s stays at %d, stock cannot go below zero\n", row.ProductName, qty)
		return nil
	}
	fmt.Fprintf(e.out, "%s: %d (%+d) worth %s\n", row.ProductName, qty, e.s.Delta(row.ID), rupiah.Format(row.Price*int64(qty)))
	return nil
}
