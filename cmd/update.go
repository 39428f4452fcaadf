package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smazurov/canister/internal/logging"
	"github.com/smazurov/canister/internal/updater"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var opts updater.Options
	var checkOnly bool
	var rollback bool
	var rawJSON bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update canister to the latest release",
		Long: `Downloads the latest GitHub release and replaces the installed binary, keeping a backup of the current one. ` +
			`Restart the service afterwards to run the new version.`,
		Example: `  canister update --check
  canister update
  canister update --rollback`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if checkOnly && rollback {
				return errors.New("--check and --rollback are mutually exclusive")
			}

			u, err := updater.New(opts, logging.GetLogger("updater"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case rollback:
				info, err := u.Rollback()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "restored %s to %s, restart the service to run it\n", info.ExecPath, info.Version)
				return nil
			case checkOnly:
				rel, err := u.Check(cmd.Context())
				if err != nil {
					return err
				}
				return printRelease(out, rel, rawJSON)
			}

			rel, err := u.Apply(cmd.Context())
			if updater.HasCode(err, updater.ErrCodeNoUpdate) {
				return printRelease(out, rel, rawJSON)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "updated %s -> %s, restart the service to run it\n", rel.CurrentVersion, rel.LatestVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Repository, "repo", updater.DefaultRepository, "GitHub repository to fetch releases from")
	cmd.Flags().BoolVar(&opts.Prerelease, "prerelease", false, "Include prereleases")
	cmd.Flags().StringVar(&opts.BackupDir, "backup-dir", "", "Backup directory (default ~/.cache/canister/backup)")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update is available")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the binary saved by the last update")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print release information as JSON")

	return cmd
}

func printRelease(out io.Writer, rel *updater.Release, rawJSON bool) error {
	if rawJSON {
		return json.NewEncoder(out).Encode(rel)
	}
	if !rel.UpdateAvailable {
		fmt.Fprintf(out, "canister %s is up to date\n", rel.CurrentVersion)
		return nil
	}
	fmt.Fprintf(out, "update available: %s -> %s\n", rel.CurrentVersion, rel.LatestVersion)
	if rel.ReleaseURL != "" {
		fmt.Fprintf(out, "  %s\n", rel.ReleaseURL)
	}
	return nil
}
