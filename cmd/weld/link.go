package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	weld "github.com/xyproto/weld"
	"github.com/xyproto/weld/internal/diag"
)

var (
	outputFlag      string
	baseAddrFlag    string
	pageSizeFlag    string
	entrySymbolFlag string
	verboseFlag     bool
)

var linkCmd = &cobra.Command{
	Use:   "link FILE...",
	Short: "Link object files and archives into an executable",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().StringVarP(&outputFlag, "output", "o", "a.out", "output executable path")
	linkCmd.Flags().StringVar(&baseAddrFlag, "base-addr", "", "load address override, e.g. 0x400000")
	linkCmd.Flags().StringVar(&pageSizeFlag, "page-size", "", "page alignment override, e.g. 0x1000")
	linkCmd.Flags().StringVar(&entrySymbolFlag, "entry", "", "entry point symbol override")
	linkCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose diagnostics")
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if baseAddrFlag != "" {
		v, err := strconv.ParseUint(baseAddrFlag, 0, 64)
		if err != nil {
			return fmt.Errorf("--base-addr: %w", err)
		}
		cfg.BaseAddr = v
	}
	if pageSizeFlag != "" {
		v, err := strconv.ParseUint(pageSizeFlag, 0, 64)
		if err != nil {
			return fmt.Errorf("--page-size: %w", err)
		}
		cfg.PageSize = v
	}
	if entrySymbolFlag != "" {
		cfg.EntrySymbol = entrySymbolFlag
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = outputFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}

	verbosity := diag.LevelNotice
	if cfg.Verbose {
		verbosity = diag.LevelDebug
	}
	sink := diag.New(diag.WithVerbosity(verbosity))

	ctx := weld.NewContext(sink)
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := ctx.AddInput(path, data); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}

	result, err := ctx.Link(weld.LinkOptions{
		BaseAddr:    cfg.BaseAddr,
		PageSize:    cfg.PageSize,
		EntrySymbol: cfg.EntrySymbol,
	})
	if err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if err := os.WriteFile(cfg.Output, result.Bytes, 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "weld: wrote %s (entry 0x%x, %d bytes)\n", cfg.Output, result.EntryAddr, len(result.Bytes))
	}
	return nil
}
