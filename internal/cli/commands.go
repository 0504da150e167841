package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gochicken/internal/staging"
	"gochicken/pkg/rupiah"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBranchesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			branches, err := opts.client().ListBranches(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME")
			for _, b := range branches {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Code, b.Name)
			}
			return w.Flush()
		},
	}
}

func newStocksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks <branch-id>",
		Short: "Print the stock list of a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid branch id %q: %w", args[0], err)
			}
			s := staging.NewSession(opts.client(), branchID)
			if err := s.Refresh(cmd.Context()); err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), s)
		},
	}
}

func newEditCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <branch-id>",
		Short: "Stage stock changes for a branch and commit them together",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid branch id %q: %w", args[0], err)
			}
			s := staging.NewSession(opts.client(), branchID,
				staging.WithLogger(opts.logger()),
				staging.WithCommitTimeout(opts.commitTimeout),
			)
			if err := s.Refresh(cmd.Context()); err != nil {
				return err
			}
			return newEditor(s, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}

// printRows shows the effective quantity, with the pending delta when there is one.
func printRows(out io.Writer, s *staging.Session) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRODUCT\tCATEGORY\tPRICE\tQTY\tPENDING")
	for i, r := range s.Rows() {
		qty, _ := s.Quantity(r.ID)
		pending := ""
		if d := s.Delta(r.ID); d != 0 {
			pending = fmt.Sprintf("%+d", d)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", i+1, r.ProductName, r.Category, rupiah.Format(r.Price), qty, pending)
	}
	return w.Flush()
}

func printChanges(out io.Writer, changes []staging.Change) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tCHANGE\tBEFORE\tAFTER")
	for _, c := range changes {
		fmt.Fprintf(w, "%s\t%+d\t%d\t%d\n", c.Row.ProductName, c.Delta, c.Row.Quantity, c.NewQuantity)
	}
	return w.Flush()
}
