// browser_cmd.go

package main

import (
	"github.com/spf13/cobra"
)

func newBrowserCmd() *cobra.Command {
	opts := browserOptions{}

	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Launch a browser with remote debugging for manual login",
		Long: `Launches a browser with a remote debugging port and an isolated profile
directory, so you can log in and obtain an access token.

Blocks until the browser is closed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Bin == "" {
				configPath, _ := cmd.Flags().GetString("config")

				conf, err := readConfigFile(configPath)
				if err != nil {
					return err
				}
				opts.Bin = envOrDefault(envBrowserBin, conf.BrowserBin)
			}
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")

			return launch(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Engine, "engine", engineRod, "browser engine ("+engineRod+" or "+enginePlaywright+")")
	f.StringVar(&opts.Bin, "bin", "", "path to the browser binary (default: "+envBrowserBin+" or the system browser)")
	f.IntVar(&opts.Port, "port", defaultDebugPort, "remote debugging port")
	f.StringVar(&opts.ProfileDir, "profile-dir", defaultProfileDirPath(), "isolated profile directory")
	f.StringVar(&opts.URL, "url", defaultLoginURL, "page to open on launch")

	return cmd
}
