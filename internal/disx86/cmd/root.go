package cmd

import (
	"context"
	"crypto/sha256"
	"debug/elf"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"disx86/internal/analysis"
	"disx86/internal/disasm"
	"disx86/internal/disx86/log"
	"disx86/internal/elfx"
	"disx86/internal/ui/colorize"
	"disx86/internal/x86"
)

// JSONOutput is the machine-readable form of a listing.
type JSONOutput struct {
	File     string     `json:"file"`
	Digest   string     `json:"digest"`
	Mode     string     `json:"mode"`
	Start    string     `json:"start"`
	Bad      int        `json:"bad"`
	Calls    int        `json:"calls"`
	Listing  []JSONLine `json:"listing"`
	Findings []JSONCall `json:"findings,omitempty"`
}

type JSONLine struct {
	Address     string   `json:"address"`
	Bytes       string   `json:"bytes,omitempty"`
	Label       string   `json:"label,omitempty"`
	Text        string   `json:"text,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

type JSONCall struct {
	Address string `json:"address"`
	Target  string `json:"target"`
	Symbol  string `json:"symbol,omitempty"`
	PLT     bool   `json:"plt,omitempty"`
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("config", "", "JSON config file")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringP("mode", "m", "", "Decode mode: 16, 32 or 64")
	rootCmd.PersistentFlags().StringSlice("format", nil, "Format flags, e.g. hex,pointer-size,comma-spaces")
	rootCmd.PersistentFlags().StringP("address", "a", "", "Runtime address of the first byte")
	rootCmd.PersistentFlags().Int("max", 0, "Stop after this many instructions")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable syntax highlighting")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the listing without the TUI")
	rootCmd.Flags().BoolP("json", "j", false, "Print the listing as JSON")
	rootCmd.Flags().StringP("symbol", "s", "", "Disassemble this function instead of .text")
	rootCmd.Flags().IntP("workers", "w", 0, "Goroutines formatting the listing (default GOMAXPROCS)")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")

}

var rootCmd = &cobra.Command{
	Use:   "disx86 [file]",
	Short: "x86 disassembler for the terminal",
	Long: `disx86 decodes 16, 32 and 64-bit x86 machine code into Intel syntax.
Given an ELF file it disassembles .text (or one function) and annotates calls,
branches and string references; the decode, watch and verify subcommands
work on raw hex.`,
	Example: `
# Browse a binary interactively
disx86 /bin/ls

# Print one function as plain text
disx86 -n -s main ./a.out

# Decode bytes
disx86 decode -m 32 "8B 65 E8"
  `,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logFile, _ := cmd.Flags().GetString("log-file")
		return log.Setup(logFile, debug)
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					slog.Error("could not create memory profile", "error", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					slog.Error("could not write memory profile", "error", err)
				}
			}()
		}

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return fmt.Errorf("cannot access file: %w", err)
		}

		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		noTUI, _ := cmd.Flags().GetBool("no-tui")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		symbol, _ := cmd.Flags().GetString("symbol")
		workers, _ := cmd.Flags().GetInt("workers")
		if workers > 0 {
			s.workers = workers
		}

		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
		}

		img, err := elfx.Open(absPath)
		if err != nil {
			return fmt.Errorf("failed to load file: %w", err)
		}
		defer img.Close()
		if s.modeSet {
			img.Mode = s.mode
		}
		slog.Debug("opened image", "path", absPath, "mode", img.Mode, "text", fmt.Sprintf("%#x", img.Text.VA), "symbols", len(img.Symbols))

		if !noTUI && !jsonOutput {
			program := tea.NewProgram(
				NewModel(absPath, img, symbol, s),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := program.Run(); err != nil {
				slog.Error("TUI run error", "error", err)
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		}

		res, err := disassembleImage(cmd.Context(), img, symbol, s)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), absPath, img, res)
		}
		return writeListing(cmd.OutOrStdout(), absPath, img, res, s.color)
	},
}

// disassembleImage lists one function when symbol is set, else the whole
// executable section.
func disassembleImage(ctx context.Context, img *elfx.Image, symbol string, s settings) (*analysis.AnnotatorResult, error) {
	if symbol != "" {
		addr, ok := img.FindFunctionByName(symbol)
		if !ok {
			return nil, fmt.Errorf("symbol not found: %s", symbol)
		}
		limit := s.max
		if limit == 0 {
			limit = analysis.MaxTraceInstructions
			if sym, _, ok := img.Lookup(addr); ok && sym.Size > 0 {
				limit = int(sym.Size)
			}
		}
		res, err := analysis.TraceDisasm(img, addr, limit, s.flags)
		if err != nil {
			return nil, err
		}
		if sym, _, ok := img.Lookup(addr); ok && sym.Size > 0 {
			res.Listing = clip(res.Listing, addr+sym.Size)
		}
		return res, nil
	}

	code, ok := img.TextBytes()
	if !ok {
		return nil, fmt.Errorf("no executable section in %s", img.Path)
	}
	workers := s.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	stream, err := disasm.DisassembleParallel(ctx, code, img.Text.VA, disasm.Options{
		Mode:     img.Mode,
		Flags:    s.flags &^ x86.FormatBytes,
		Absolute: true,
		Max:      s.max,
	}, workers)
	if err != nil {
		return nil, err
	}
	slog.Debug("disassembled", "instructions", len(stream), "bad", stream.BadCount())
	return analysis.Annotate(img, stream), nil
}

// clip drops lines at or past end.
func clip(listing []analysis.AnnotatedInst, end uint64) []analysis.AnnotatedInst {
	for i, a := range listing {
		if a.VA >= end {
			return listing[:i]
		}
	}
	return listing
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to calculate digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileKind(img *elfx.Image) string {
	if img.File != nil && img.File.Type == elf.ET_DYN {
		return "shared object"
	}
	return "executable"
}

func writeListing(w io.Writer, path string, img *elfx.Image, res *analysis.AnnotatorResult, color bool) error {
	digest, err := digestFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "; %s\n", path)
	fmt.Fprintf(w, "; %s (%s, %s)\n", pathpkg.Base(path), fileKind(img), img.Mode)
	fmt.Fprintf(w, "; %s\n\n", digest)
	for _, a := range res.Listing {
		line := a.String()
		if color {
			line = colorize.ColorizeInstructionLine(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, path string, img *elfx.Image, res *analysis.AnnotatorResult) error {
	digest, err := digestFile(path)
	if err != nil {
		return err
	}
	out := JSONOutput{
		File:   path,
		Digest: digest,
		Mode:   img.Mode.String(),
		Calls:  len(res.Findings),
	}
	for _, a := range res.Listing {
		if out.Start == "" {
			out.Start = fmt.Sprintf("%#x", a.VA)
		}
		line := JSONLine{Address: fmt.Sprintf("%#x", a.VA)}
		if a.IsLabel() {
			line.Label = a.Mnemonic[:len(a.Mnemonic)-1]
		} else {
			line.Bytes = hex.EncodeToString(a.Bytes)
			line.Text = joinText(a.Mnemonic, a.Operands)
			line.Annotations = a.Annotations
			if a.Mnemonic == disasm.Bad {
				out.Bad++
			}
		}
		out.Listing = append(out.Listing, line)
	}
	for _, f := range res.Findings {
		out.Findings = append(out.Findings, JSONCall{
			Address: fmt.Sprintf("%#x", f.CallVA),
			Target:  fmt.Sprintf("%#x", f.TargetVA),
			Symbol:  f.Target,
			PLT:     f.PLT,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func joinText(op, operands string) string {
	if operands == "" {
		return op
	}
	return op + " " + operands
}

func Execute() {
	// fang renders help and errors as styled markdown; plain cobra is used
	// when stdout is not a terminal.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
