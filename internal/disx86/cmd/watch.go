package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Follow a file of hex lines and disassemble each as it is written",
	Long: `Follow a text file, like tail -f, and decode every appended line of hex.
Addresses continue from one line to the next. Lines that are not valid hex
are logged and skipped.`,
	Example: `
disx86 watch -a 0x7c00 -m 16 trace.hex
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		fromStart, _ := cmd.Flags().GetBool("from-start")

		cfg := tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: true,
			Logger:    tail.DiscardingLogger,
		}
		if !fromStart {
			cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
		}
		t, err := tail.TailFile(args[0], cfg)
		if err != nil {
			return fmt.Errorf("failed to follow %s: %w", args[0], err)
		}
		defer t.Cleanup()
		defer t.Stop()

		return followLines(cmd.Context(), t.Lines, cmd.OutOrStdout(), s)
	},
}

func init() {
	watchCmd.Flags().Bool("from-start", false, "Decode the lines already in the file first")
	rootCmd.AddCommand(watchCmd)
}

// followLines decodes lines until the channel closes or ctx is done.
func followLines(ctx context.Context, lines <-chan *tail.Line, w io.Writer, s settings) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				slog.Warn("tail error", "error", line.Err)
				continue
			}
			code, err := parseHex(line.Text)
			if err != nil {
				slog.Warn("skipping line", "line", line.Text, "error", err)
				continue
			}
			if len(code) == 0 {
				continue
			}
			next, err := runDecode(w, code, s)
			if err != nil {
				return err
			}
			s.address = next
		}
	}
}
