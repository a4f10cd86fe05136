package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalambet/userdefaults/internal/backend"
	"github.com/kalambet/userdefaults/internal/config"
	"github.com/kalambet/userdefaults/internal/defaults"
	"github.com/kalambet/userdefaults/internal/native"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Exercise every value kind against the configured backend",
	Long: `Exercise every value kind against the configured backend.

Writes and reads back a long, a double, a string and a string array with
trace logging, dumps the domain, then clears it. Runs in a scratch domain
named <domain>.demo-<uuid> unless --keep-domain is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("log-level") {
			cfg.Log.Level = "trace"
		}
		if keep, _ := cmd.Flags().GetBool("keep-domain"); !keep {
			cfg.Domain = fmt.Sprintf("%s.demo-%s", cfg.Domain, uuid.New().String())
		}
		setupLogging(cmd, cfg)
		return runDemo(cmd, cfg)
	},
}

func runDemo(cmd *cobra.Command, cfg config.Config) error {
	s, err := backend.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(s)

	kind := backend.Resolve(cfg.Backend.Kind)
	printStatus("Domain", "%s", cfg.Domain)
	printStatus("Backend", "%s", kind)

	printStep("Testing long")
	if err := s.SetLong("long", 42); err != nil {
		return err
	}
	if _, _, err := s.GetLong("long"); err != nil {
		return err
	}

	printStep("Testing double")
	if err := s.SetDouble("double", 123.456); err != nil {
		return err
	}
	if _, _, err := s.GetDouble("double"); err != nil {
		return err
	}

	printStep("Testing string")
	if err := s.SetString("string", "lorem ipsum"); err != nil {
		return err
	}
	if _, _, err := s.GetString("string"); err != nil {
		return err
	}

	printStep("Testing string array")
	if err := s.SetStringArray("string-array", []string{"one", "two", "three"}); err != nil {
		return err
	}
	if _, _, err := s.GetStringArray("string-array"); err != nil {
		return err
	}

	printStep("Dumping the whole domain")
	if err := dumpDomain(cmd, s, kind, cfg.Domain); err != nil {
		return err
	}

	printStep("Clearing the whole domain")
	if err := clearDomain(cmd, s, kind, cfg.Domain); err != nil {
		return err
	}

	printSuccess("Demo finished")
	return nil
}

// dumpDomain prints the domain through the defaults tool when the backend
// is the native store, and as a table otherwise.
func dumpDomain(cmd *cobra.Command, s *defaults.Store, kind, domain string) error {
	if kind == "native" {
		out, err := native.ReadDomain(cmd.Context(), domain)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	return writeEntriesTable(cmd, entries)
}

// clearDomain removes the domain along with its file, bucket or rows.
func clearDomain(cmd *cobra.Command, s *defaults.Store, kind, domain string) error {
	if kind == "native" {
		return native.DeleteDomain(cmd.Context(), domain)
	}
	return s.Drop()
}

func init() {
	demoCmd.Flags().Bool("keep-domain", false, "run in the configured domain instead of a scratch one")
	rootCmd.AddCommand(demoCmd)
}
