// FILE: lixenwraith/presets/cmd/presetctl/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/lixenwraith/presets"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
)

type rootOptions struct {
	configDir string
	presets   []string
	addons    []string
	format    string
	critical  bool
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "presetctl",
		Short: "Inspect composed presets and addons",
		Long: `presetctl loads the presets and addons of a config directory and shows the composed result.

  The main config file (main.json, main.yaml, main.toml, ...) in the config directory is loaded after core presets and before --preset and --addon entries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configDir, "config-dir", "c", ".", "directory presets and addons resolve from")
	flags.StringArrayVarP(&opts.presets, "preset", "p", nil, "preset specifier (repeatable)")
	flags.StringArrayVarP(&opts.addons, "addon", "a", nil, "addon specifier (repeatable)")
	flags.StringVarP(&opts.format, "format", "f", presets.FormatJSON, "output format: json, yaml or toml")
	flags.BoolVar(&opts.critical, "critical", false, "fail when any preset cannot be loaded")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(newListCmd(opts), newEntriesCmd(opts), newApplyCmd(opts))
	return rootCmd
}

// build loads the pass described by the root flags
func (o *rootOptions) build(cmd *cobra.Command) (*presets.Presets, error) {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	b := presets.NewBuilder().
		WithConfigDir(o.configDir).
		WithCritical(o.critical).
		WithLogger(logger)
	for _, p := range o.presets {
		b.WithPresets(p)
	}
	for _, a := range o.addons {
		b.WithAddons(a)
	}
	return b.Build(cmd.Context())
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded presets in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.build(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if p.Len() == 0 {
				fmt.Fprintln(out, "► no presets loaded")
				return nil
			}
			for i, loaded := range p.List() {
				keys := make([]string, 0, len(loaded.Preset))
				for k := range loaded.Preset {
					keys = append(keys, k)
				}
				slices.Sort(keys)
				fmt.Fprintf(out, "%d\t%s\t[%s]\n", i, loaded.Name, strings.Join(keys, ", "))
			}
			return nil
		},
	}
}

func newEntriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "Show manager entries and preview annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.build(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			managerEntries, err := p.ManagerEntries(ctx)
			if err != nil {
				return err
			}
			previewAnnotations, err := p.PreviewAnnotations(ctx)
			if err != nil {
				return err
			}

			annotations := make([]map[string]any, 0, len(previewAnnotations))
			for _, a := range previewAnnotations {
				entry := map[string]any{"bare": a.Bare}
				if a.Absolute != "" {
					entry["absolute"] = a.Absolute
				}
				annotations = append(annotations, entry)
			}
			return presets.Encode(cmd.OutOrStdout(), map[string]any{
				presets.ExtManagerEntries:     managerEntries,
				presets.ExtPreviewAnnotations: annotations,
			}, opts.format)
		},
	}
}

func newApplyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <key> [seed]",
		Short: "Fold an extension point over the loaded presets",
		Long: `Fold an extension point over the loaded presets.

  The optional seed is a JSON (or JSONC) value; it defaults to null.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed any
			if len(args) == 2 {
				if err := json.Unmarshal(jsonc.ToJSON([]byte(args[1])), &seed); err != nil {
					return fmt.Errorf("invalid seed: %w", err)
				}
			}

			p, err := opts.build(cmd)
			if err != nil {
				return err
			}
			result, err := p.Apply(cmd.Context(), args[0], seed, nil)
			if err != nil {
				return err
			}
			return presets.Encode(cmd.OutOrStdout(), result, opts.format)
		},
	}
}
