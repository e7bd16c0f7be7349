package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/profile"
	"github.com/theirongolddev/finlens/internal/source"
)

var (
	flagTxNote  string
	flagTxLimit int
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Record and review transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add <amount> [category]",
	Short: "Record a spend",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTxAdd,
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transactions",
	RunE:  runTxList,
}

var txImportCmd = &cobra.Command{
	Use:   "import <file-or-dir>...",
	Short: "Import transactions from JSONL exports",
	Long: `Import transactions from JSONL files, one object per line:

  {"id": "bank-123", "amount": 450, "category": "Dining", "note": "dinner", "date": "2025-06-01"}

Only amount is required. Entries are keyed by id (or file name and line),
so importing the same file twice does not duplicate transactions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTxImport,
}

var txBreakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Spending by category",
	RunE:  runTxBreakdown,
}

func init() {
	txAddCmd.Flags().StringVar(&flagTxNote, "note", "", "Free-text note")
	txListCmd.Flags().IntVarP(&flagTxLimit, "limit", "n", 20, "Max transactions to show (0 for all)")

	txCmd.AddCommand(txAddCmd, txListCmd, txImportCmd, txBreakdownCmd)
	rootCmd.AddCommand(txCmd)
}

func runTxAdd(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", ""), 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	in := model.TransactionInput{Amount: amount, Note: flagTxNote}
	if len(args) > 1 {
		in.Category = args[1]
	}

	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	s, err := d.requireUser(ctx)
	if err != nil {
		return err
	}

	id, err := d.profiles.AddTransaction(ctx, s.UserID(), in)
	if err != nil {
		return errors.New(profile.UserMessage(err))
	}
	d.log.Debug().Str("transaction_id", id).Msg("transaction added")

	cat := in.Category
	if strings.TrimSpace(cat) == "" {
		cat = model.DefaultCategory
	}
	fmt.Printf("  Recorded %s in %s\n", cli.FormatMoney(d.cfg.General.Currency, amount), cat)
	return nil
}

func runTxList(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	s, err := d.requireUser(ctx)
	if err != nil {
		return err
	}

	txs, err := d.profiles.Transactions(ctx, s.UserID())
	if err != nil {
		return errors.New(profile.UserMessage(err))
	}
	if len(txs) == 0 {
		fmt.Println("\n  No transactions yet. Add one with `finlens tx add <amount> <category>`.")
		return nil
	}
	if flagTxLimit > 0 && len(txs) > flagTxLimit {
		txs = txs[:flagTxLimit]
	}

	cur := d.cfg.General.Currency
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		cat := t.Category
		if cat == "" {
			cat = model.DefaultCategory
		}
		rows = append(rows, []string{
			cli.FormatWhen(t.CreatedAt),
			cat,
			cli.FormatMoney(cur, t.Amount),
			cli.Truncate(t.Note, 30),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Transactions",
		Headers: []string{"When", "Category", "Amount", "Note"},
		Rows:    rows,
	}))
	return nil
}

func runTxImport(cmd *cobra.Command, args []string) error {
	files, err := source.ScanPaths(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("  No .jsonl files found.")
		return nil
	}

	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	s, err := d.requireUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "  Importing %d file(s)...\n", len(files))
	res, err := source.Import(ctx, d.profiles, s.UserID(), files, func(current, total int) {
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Writing [%d/%d]", current, total)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("  Imported %d transaction(s) from %d file(s)\n", res.Imported, res.ParsedFiles)
	if res.ParseErrors > 0 {
		fmt.Printf("  %s\n", cli.Warn(fmt.Sprintf("%d line(s) skipped as malformed", res.ParseErrors)))
	}
	if res.FileErrors > 0 || res.WriteErrors > 0 {
		msg := fmt.Sprintf("%d file(s) unreadable, %d write(s) failed", res.FileErrors, res.WriteErrors)
		if res.FirstErr != nil {
			d.log.Warn().Err(res.FirstErr).Msg("import incomplete")
			msg += ": " + profile.UserMessage(res.FirstErr)
		}
		return errors.New(msg)
	}
	return nil
}

func runTxBreakdown(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	s, err := d.requireUser(ctx)
	if err != nil {
		return err
	}

	shares, err := d.profiles.CategoryBreakdown(ctx, s.UserID())
	if err != nil {
		return errors.New(profile.UserMessage(err))
	}
	if len(shares) == 0 {
		fmt.Println("\n  No transactions yet.")
		return nil
	}

	cur := d.cfg.General.Currency
	var total, maxAmount float64
	for _, c := range shares {
		total += c.Amount
		maxAmount = max(maxAmount, c.Amount)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SPENDING BY CATEGORY  " + cli.FormatMoney(cur, total)))
	fmt.Println()
	const barWidth = 30
	for _, c := range shares {
		bar := cli.RenderHorizontalBar(c.Category, c.Amount, maxAmount, barWidth)
		pad := strings.Repeat(" ", max(0, barWidth-barLen(c.Amount, maxAmount, barWidth)))
		fmt.Printf("%s%s  %-10s %s\n", bar, pad, cli.FormatMoney(cur, c.Amount), cli.Muted(cli.FormatShare(c.Percentage)))
	}
	fmt.Println()
	return nil
}

func barLen(value, maxValue float64, width int) int {
	if maxValue <= 0 {
		return 0
	}
	return max(0, int(value/maxValue*float64(width)))
}
