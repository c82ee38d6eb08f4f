package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/mlexercises/datakit/internal/branding"
	"github.com/mlexercises/datakit/internal/job"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
	versionCheck string
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	versionCmd.Flags().StringVar(&versionCheck, "check", "", "Fail unless this build satisfies a semver constraint (e.g. \">=1.2\")")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionCheck != "" {
			ok, err := satisfies(buildVersion, versionCheck)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("version %s does not satisfy %q", buildVersion, versionCheck)
			}
			fmt.Fprintf(out, "%s satisfies %s\n", buildVersion, versionCheck)
			return nil
		}

		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		if versionJSON {
			info := map[string]string{
				"module":       branding.GoModule(),
				"version":      buildVersion,
				"commit":       buildCommit,
				"date":         buildDate,
				"job_versions": job.SupportedVersions,
			}
			b, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		fmt.Fprintf(out, "%s version %s (commit: %s, built: %s, job files: %s)\n",
			branding.CLIName(), buildVersion, buildCommit, buildDate, job.SupportedVersions)
		return nil
	},
}

// satisfies reports whether version meets constraint. Development builds
// never satisfy a constraint.
func satisfies(version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return false, nil
	}
	return c.Check(v), nil
}
