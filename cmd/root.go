// Package cmd implements the command-line interface for the audit
// service. It provides the root command and subcommands for running
// audits, serving the API, and operating workers.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	auditcmd "github.com/rankwell/siteaudit/cmd/audit"
	rulescmd "github.com/rankwell/siteaudit/cmd/rules"
	servecmd "github.com/rankwell/siteaudit/cmd/serve"
	workercmd "github.com/rankwell/siteaudit/cmd/worker"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// rootCmd represents the root command for the siteaudit CLI.
	rootCmd = &cobra.Command{
		Use:   "siteaudit",
		Short: "A website SEO audit service",
		Long:  `A website SEO audit service: crawls a site, evaluates a weighted rule catalog, and reports category scores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env file early so environment variables are available.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or /etc/siteaudit/config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "siteaudit version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(auditcmd.Command(&cfgFile))
	rootCmd.AddCommand(servecmd.Command(&cfgFile))
	rootCmd.AddCommand(workercmd.Command(&cfgFile))
	rootCmd.AddCommand(rulescmd.Command())
}
