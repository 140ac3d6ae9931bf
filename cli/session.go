package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/cashdrawer/drawer"
)

// newSessionCommand groups the drawer operations for terminal use. Every
// subcommand opens the database, runs one engine call and closes it.
func newSessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Open, record, close and inspect drawer sessions",
	}
	cmd.AddCommand(
		newSessionOpenCommand(a),
		newSessionRecordCommand(a),
		newSessionCloseCommand(a),
		newSessionListCommand(a),
		newSessionShowCommand(a),
	)
	return cmd
}

func newSessionOpenCommand(a *app) *cobra.Command {
	var owner, name, float string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open today's session for an operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseMoney("float", float)
			if err != nil {
				return err
			}
			engine, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := engine.OpenSession(cmd.Context(), drawer.OwnerID(owner), name, amount)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Operator id")
	cmd.Flags().StringVar(&name, "name", "", "Operator display name")
	cmd.Flags().StringVar(&float, "float", "0", "Opening float")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSessionRecordCommand(a *app) *cobra.Command {
	var kind, amount, concept, method, observations string
	cmd := &cobra.Command{
		Use:   "record SESSION_ID",
		Short: "Record an income or expense in an open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := drawer.ParseAmount(amount)
			if err != nil {
				return err
			}
			engine, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			m, err := engine.RecordMovement(cmd.Context(), drawer.SessionID(args[0]), drawer.MovementInput{
				Kind:          drawer.MovementKind(kind),
				Amount:        value,
				Concept:       concept,
				PaymentMethod: drawer.PaymentMethod(method),
				Observations:  observations,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
				m.ID, m.Kind, m.PaymentMethod, m.Amount.StringFixed(2), m.Concept)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "income or expense")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, greater than zero")
	cmd.Flags().StringVar(&concept, "concept", "", "What the movement is for")
	cmd.Flags().StringVar(&method, "method", "", "cash, transfer, card or other (default cash)")
	cmd.Flags().StringVar(&observations, "observations", "", "Free-text note")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("concept")
	return cmd
}

func newSessionCloseCommand(a *app) *cobra.Command {
	var declared string
	cmd := &cobra.Command{
		Use:   "close SESSION_ID",
		Short: "Close a session with the counted cash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseMoney("declared", declared)
			if err != nil {
				return err
			}
			engine, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := engine.CloseSession(cmd.Context(), drawer.SessionID(args[0]), value)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSession(out, c.Session)
			printStats(out, c.Stats)
			fmt.Fprintf(out, "declared\t%s\ndiscrepancy\t%s\noutcome\t%s\n",
				c.Reconciliation.DeclaredCash.StringFixed(2),
				c.Reconciliation.Discrepancy.StringFixed(2),
				c.Reconciliation.Outcome)
			if c.Reconciliation.Flagged() {
				fmt.Fprintln(out, "WARNING: counted cash does not match the expected balance")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&declared, "declared", "", "Physically counted cash")
	_ = cmd.MarkFlagRequired("declared")
	return cmd
}

func newSessionListCommand(a *app) *cobra.Command {
	var owner, date, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := drawer.SessionFilter{OwnerID: drawer.OwnerID(owner), Status: drawer.SessionStatus(status)}
			if date != "" {
				d, err := drawer.ParseDate(date)
				if err != nil {
					return err
				}
				filter.Date = d
			}
			engine, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := engine.Sessions(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				printSession(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only this operator")
	cmd.Flags().StringVar(&date, "date", "", "Only this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "open or closed")
	return cmd
}

func newSessionShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show SESSION_ID",
		Short: "Show a session with its live stats and movements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, store, err := a.openEngine()
			if err != nil {
				return err
			}
			defer store.Close()

			id := drawer.SessionID(args[0])
			s, err := engine.Session(cmd.Context(), id)
			if err != nil {
				return err
			}
			st, err := engine.Stats(cmd.Context(), id)
			if err != nil {
				return err
			}
			movements, err := engine.Movements(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSession(out, s)
			printStats(out, st)
			for _, m := range movements {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
					m.RecordedAt.Format("15:04"), m.Kind, m.PaymentMethod, m.Signed().StringFixed(2), m.Concept)
			}
			return nil
		},
	}
}

func printSession(w io.Writer, s drawer.Session) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Status, s.Date, s.OwnerID, s.OpeningFloat.StringFixed(2))
}

func printStats(w io.Writer, st drawer.Stats) {
	fmt.Fprintf(w, "cash balance\t%s\noverall balance\t%s\nmovements\t%d\n",
		st.CashBalance.StringFixed(2), st.OverallBalance.StringFixed(2), st.TransactionCount)
}

// parseMoney parses a float or a cash count. Zero is a valid value for both;
// the engine applies the range rules.
func parseMoney(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: invalid amount %q", flag, s)
	}
	return d, nil
}
