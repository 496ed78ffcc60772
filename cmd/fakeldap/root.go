package main

import (
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/fakeldap/internal/config"
)

// examples:
// ./fakeldap serve --port 1389 --file ./fakepasswd
// ./fakeldap serve --config ./fakeldap.yaml
// ./fakeldap users list --filter '(gid=1000)'
// ./fakeldap users add alice --password secret --shell /bin/sh

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	recordFile string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "fakeldap",
		Short:         "A fake LDAP directory backed by a passwd-style file",
		Long:          "fakeldap - an LDAP test double answering bind, search and add from a colon-delimited user file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&flags.recordFile, "file", "f", "", "user record file (overrides config)")

	// keep the order of commands as added
	cobra.EnableCommandSorting = false

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newUsersCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig loads the config file named by the flags and applies the
// record file override.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.recordFile != "" {
		cfg.Directory.RecordFile = f.recordFile
	}
	return cfg, nil
}
