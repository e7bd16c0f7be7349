package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finlens/internal/cli"
	"github.com/theirongolddev/finlens/internal/conversation"
	"github.com/theirongolddev/finlens/internal/model"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the finance advisor (interactive when no question is given)",
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	client, cfg, err := newBackend()
	if err != nil {
		return err
	}
	conv := conversation.New(client, consoleLogger(cfg))
	ctx := cmd.Context()

	if len(args) > 0 {
		ask(ctx, conv, strings.Join(args, " "), os.Stdout)
		return nil
	}

	fmt.Println("  Ask about your spending. Empty line or Ctrl-D to quit.")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(cli.Muted("> "))
		if !sc.Scan() {
			fmt.Println()
			return sc.Err()
		}
		q := strings.TrimSpace(sc.Text())
		if q == "" {
			return nil
		}
		ask(ctx, conv, q, os.Stdout)
	}
}

// ask submits q and prints the assistant reply once it arrives.
func ask(ctx context.Context, conv *conversation.Session, q string, w io.Writer) {
	done, ok := conv.Submit(ctx, q)
	if !ok {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
		return
	}

	msgs := conv.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant {
		return
	}
	content := last.Content
	if conv.Err() != nil {
		content = cli.Warn(content)
	}
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
}
