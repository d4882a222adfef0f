package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/core"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get or set configuration",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")
			cfg, err := core.ReadConfigFile()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if len(args) == 0 {
				entries := make(map[string]string, len(core.ConfigKeys()))
				for _, key := range core.ConfigKeys() {
					entries[key], _ = cfg.Get(key)
				}
				if jsonMode {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Configuration:")
				for _, key := range core.ConfigKeys() {
					fmt.Fprintf(out, "  %s: %s\n", key, entries[key])
				}
				return nil
			}

			key := normalizeConfigKey(args[0])
			if len(args) == 1 {
				value, err := cfg.Get(key)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				if jsonMode {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{key: value})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, value)
				return nil
			}

			if err := cfg.Set(key, args[1]); err != nil {
				return writeCommandError(cmd, err)
			}
			if err := core.WriteConfig(cfg); err != nil {
				return writeCommandError(cmd, err)
			}
			value, _ := cfg.Get(key)
			if jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{key: value})
			}
			writeSuccess(cmd, "Set %s = %s", key, value)
			return nil
		},
	}
	return cmd
}

func normalizeConfigKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}
