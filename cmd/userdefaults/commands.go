package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/kalambet/userdefaults/internal/backend"
	"github.com/kalambet/userdefaults/internal/defaults"
)

// --- get ---

var getCmd = &cobra.Command{
	Use:   "get <kind> <key>",
	Short: "Print a preference value",
	Long: `Print a preference value. Arrays print one element per line.

A key that is absent, or holds a different kind, is reported as not set
and exits non-zero. A long may be read as a double.

Examples:
  userdefaults get long launch-count
  userdefaults get string-array recent-files`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := defaults.ParseKind(args[0])
		if err != nil {
			return err
		}
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		v, ok, err := s.GetKind(kind, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not set (as %s)", args[1], kind)
		}
		if v.Kind == defaults.KindStringArray && len(v.Strings) == 0 {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), v.Format())
		return nil
	},
}

// --- set ---

var setCmd = &cobra.Command{
	Use:   "set <kind> <key> <value>...",
	Short: "Store a preference value",
	Long: `Store a preference value, replacing any previous value of any kind.

Scalar kinds take exactly one value; string-array takes any number,
including none.

Examples:
  userdefaults set long launch-count 42
  userdefaults set double ratio 123.456
  userdefaults set string greeting "lorem ipsum"
  userdefaults set string-array recent-files one two three`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := defaults.ParseKind(args[0])
		if err != nil {
			return err
		}
		v, err := defaults.ParseValue(kind, args[2:]...)
		if err != nil {
			return err
		}
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		if err := s.Set(args[1], v); err != nil {
			return err
		}
		printSuccess("Set %s (%s)", args[1], kind)
		return nil
	},
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		if err := s.Delete(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every preference in the domain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		entries, err := s.Entries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			printWarning("No preferences in %s", cfg.Domain)
			return nil
		}
		return writeEntriesTable(cmd, entries)
	},
}

func writeEntriesTable(cmd *cobra.Command, entries []defaults.Entry) error {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithRenderer(
			renderer.NewBlueprint(tw.Rendition{Symbols: tw.NewSymbols(tw.StyleASCII)})),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Key", "Kind", "Value"})
	for _, e := range entries {
		value := e.Value.Format()
		if e.Value.Kind == defaults.KindStringArray {
			b, err := json.Marshal(e.Value.Strings)
			if err != nil {
				return err
			}
			value = string(b)
		}
		if err := table.Append([]string{e.Key, e.Value.Kind.String(), value}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// --- domains ---

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the domains kept by the configured backend",
	Long: `List the domains kept by the configured backend, one per line.

The file backend lists the domain files in the data directory; the sqlite
and bolt backends list the domains holding at least one key. The memory
and native backends hold a single domain and cannot list others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		domains, err := s.Domains()
		if errors.Is(err, defaults.ErrNoDomainList) {
			return fmt.Errorf("the %s backend does not list domains", backend.Resolve(cfg.Backend.Kind))
		}
		if err != nil {
			return err
		}
		if len(domains) == 0 {
			printWarning("No domains in %s", cfg.Backend.DataDir)
			return nil
		}
		for _, d := range domains {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}

// --- export / import ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the domain as JSON",
	Long: `Write the domain as a JSON array of {"key", "kind", "value"} objects,
to stdout or to --output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		entries, err := s.Entries()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o600); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		printSuccess("Exported %d preferences from %s to %s", len(entries), cfg.Domain, output)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load preferences from an export file",
	Long: `Load preferences from a file written by export. Imported keys replace
existing values; other keys are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}
		var entries []defaults.Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing import file: %w", err)
		}

		s, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore(s)

		for _, e := range entries {
			if err := s.Set(e.Key, e.Value); err != nil {
				return fmt.Errorf("importing %q: %w", e.Key, err)
			}
		}
		printSuccess("Imported %d preferences into %s", len(entries), cfg.Domain)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(getCmd, setCmd, deleteCmd, listCmd, domainsCmd, exportCmd, importCmd)
}
