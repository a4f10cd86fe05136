package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalambet/userdefaults/internal/native"
)

var nativeCmd = &cobra.Command{
	Use:   "native",
	Short: "Inspect the domain through the macOS defaults tool",
}

var nativeDumpCmd = &cobra.Command{
	Use:   "dump [key]",
	Short: "Print the domain, or one key, as `defaults read` shows it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			out, ok, err := native.ReadKey(cmd.Context(), cfg.Domain, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not set in %s", args[0], cfg.Domain)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}

		out, err := native.ReadDomain(cmd.Context(), cfg.Domain)
		if err != nil {
			return err
		}
		if out == "" {
			printWarning("Domain %s does not exist", cfg.Domain)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var nativeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the whole domain with `defaults delete`",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := native.DeleteDomain(cmd.Context(), cfg.Domain); err != nil {
			return err
		}
		printSuccess("Cleared %s", cfg.Domain)
		return nil
	},
}

func init() {
	nativeCmd.AddCommand(nativeDumpCmd, nativeResetCmd)
	rootCmd.AddCommand(nativeCmd)
}
