package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/filter"
	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
)

// userView is the listing form of a user entry.
type userView struct {
	DN            string `json:"dn" yaml:"dn"`
	CN            string `json:"cn" yaml:"cn"`
	UID           string `json:"uid" yaml:"uid"`
	GID           string `json:"gid" yaml:"gid"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	HomeDirectory string `json:"homeDirectory" yaml:"homeDirectory"`
	Shell         string `json:"shell" yaml:"shell"`
}

func newUserView(e *directory.Entry) userView {
	first := func(name string) string {
		if v := e.Attributes[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return userView{
		DN:            e.DN,
		CN:            e.CN,
		UID:           first(directory.AttrUID),
		GID:           first(directory.AttrGID),
		Description:   first(directory.AttrDescription),
		HomeDirectory: first(directory.AttrHomeDirectory),
		Shell:         first(directory.AttrShell),
	}
}

func newUsersCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users in the record file",
	}

	cmd.AddCommand(newUsersListCmd(flags))
	cmd.AddCommand(newUsersAddCmd(flags))

	return cmd
}

func newUsersListCmd(flags *globalFlags) *cobra.Command {
	var (
		filterStr string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, optionally matching an LDAP filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			f, err := filter.Compile(filterStr)
			if err != nil {
				return errorx.IllegalArgument.Wrap(err, "invalid filter %q", filterStr)
			}

			dir := directory.NewService(passwd.NewStore(cfg.Directory.RecordFile, logging.NewNop()), nil)
			snap, err := dir.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			match := filter.NewEvaluator().Matcher(f)
			var users []userView
			for _, e := range snap.Entries() {
				if match(e.Attributes) {
					users = append(users, newUserView(e))
				}
			}

			return printUsers(cmd.OutOrStdout(), users, output)
		},
	}

	cmd.Flags().StringVar(&filterStr, "filter", "(objectClass=*)", "LDAP search filter")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json|yaml")

	return cmd
}

func printUsers(w io.Writer, users []userView, format string) error {
	switch strings.ToLower(format) {
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CN\tUID\tGID\tHOME\tSHELL")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.CN, u.UID, u.GID, u.HomeDirectory, u.Shell)
		}
		return tw.Flush()
	case "json":
		if users == nil {
			users = []userView{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(users); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to encode users as JSON")
		}
		return nil
	case "yaml":
		out, err := yaml.Marshal(users)
		if err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to encode users as YAML")
		}
		_, err = w.Write(out)
		return err
	default:
		return errorx.IllegalFormat.New("unsupported format: %s", format)
	}
}

func newUsersAddCmd(flags *globalFlags) *cobra.Command {
	var (
		password    string
		uid         string
		gid         string
		description string
		home        string
		shell       string
	)

	cmd := &cobra.Command{
		Use:   "add <cn>",
		Short: "Append a user to the record file",
		Long: "Append a user to the record file. Attributes left out get the same " +
			"defaults an LDAP add would apply.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			store := passwd.NewStore(cfg.Directory.RecordFile, logging.NewNop())
			if err := store.Init(); err != nil {
				return err
			}

			cn := args[0]
			attrs := map[string][]string{
				directory.AttrObjectClass:   {directory.UserObjectClass},
				directory.AttrCN:            {cn},
				directory.AttrPass:          {password},
				directory.AttrUID:           {uid},
				directory.AttrGID:           {gid},
				directory.AttrDescription:   {description},
				directory.AttrHomeDirectory: {home},
				directory.AttrShell:         {shell},
			}

			dn := directory.UserDN(cn)
			dir := directory.NewService(store, nil)
			admin := &directory.Principal{DN: directory.RootDN, Root: true}
			if err := dir.Add(cmd.Context(), admin, dn, attrs); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", dn)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "user password (default \"x\")")
	cmd.Flags().StringVar(&uid, "uid", "", "numeric user id (default \"1001\")")
	cmd.Flags().StringVar(&gid, "gid", "", "numeric group id (default \"1000\")")
	cmd.Flags().StringVar(&description, "description", "", "free text description")
	cmd.Flags().StringVar(&home, "home", "", "home directory (default \"/home/<cn>\")")
	cmd.Flags().StringVar(&shell, "shell", "", "login shell (default \"/bin/bash\")")

	return cmd
}
