package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"disx86/internal/disx86/config"
	"disx86/internal/ui/colorize"
	"disx86/internal/x86"
)

// settings is the config file with command-line flags applied on top.
type settings struct {
	mode     x86.Mode
	modeSet  bool // chosen by flag, so it overrides the ELF class
	flags    x86.FormatFlags
	address  uint64
	absolute bool // an address was given, so targets print as addresses
	max      int
	workers  int
	color    bool
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return settings{}, err
	}

	if cmd.Flags().Changed("mode") {
		cfg.Mode, _ = cmd.Flags().GetString("mode")
	}
	if cmd.Flags().Changed("format") {
		cfg.Format, _ = cmd.Flags().GetStringSlice("format")
	}
	if cmd.Flags().Changed("address") {
		cfg.Address, _ = cmd.Flags().GetString("address")
	}
	if cmd.Flags().Changed("max") {
		cfg.MaxInstructions, _ = cmd.Flags().GetInt("max")
	}
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid flags: %w", err)
	}

	s := settings{
		modeSet: cmd.Flags().Changed("mode"),
		max:     cfg.MaxInstructions,
		workers: cfg.Workers,
	}
	s.mode, _ = cfg.DecodeMode()
	s.flags, _ = cfg.FormatFlags()
	s.address, _ = cfg.RuntimeAddress()
	s.absolute = cfg.Address != ""

	noColor, _ := cmd.Flags().GetBool("no-color")
	s.color = cfg.ColorEnabled() && !noColor && colorize.Enabled() && term.IsTerminal(os.Stdout.Fd())
	return s, nil
}
