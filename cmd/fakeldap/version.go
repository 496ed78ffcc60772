package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version information, set at build time with
// -ldflags "-X main.version=1.0.0 -X main.commit=abc123".
var (
	version   = "0.1.0"
	commit    = "unknown"
	buildDate = "unknown"
)

// VersionInfo is the build metadata printed by the version command.
type VersionInfo struct {
	Number    string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

func currentVersion() *VersionInfo {
	return &VersionInfo{
		Number:    version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Format renders v as yaml or json.
func (v *VersionInfo) Format(format string) (string, error) {
	var output []byte
	var err error
	switch strings.ToLower(format) {
	case "json":
		output, err = json.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal version info to JSON")
		}
	case "yaml":
		output, err = yaml.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal version info to YAML")
		}
	default:
		return "", errorx.IllegalFormat.New("unsupported format: %s", format)
	}

	return strings.TrimRight(string(output), "\n"), nil
}

func newVersionCmd() *cobra.Command {
	var (
		output string
		short  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Long:  "Show the current version of fakeldap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			out, err := currentVersion().Format(output)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml|json")
	cmd.Flags().BoolVar(&short, "short", false, "Show only the version number")

	return cmd
}
