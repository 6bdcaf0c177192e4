package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/media-cache/internal/app"
	"github.com/oshokin/media-cache/internal/version"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the catalog with the local state of every video",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteListCommand(cmd.Context(), appConfig)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	downloadCmd = &cobra.Command{
		Use:   "download [flags] {ids}",
		Short: "Download videos by catalog id",
		Long: `Download videos by catalog id.

Ids can be given as arguments, read from a file with one id per line (-i),
or selected all at once with --all. Already downloaded videos are skipped.`,
		Run: func(cmd *cobra.Command, ids []string) {
			inputFile, _ := cmd.Flags().GetString("input")
			all, _ := cmd.Flags().GetBool("all")

			if len(ids) == 0 && inputFile == "" && !all {
				_ = cmd.Help()

				return
			}

			app.ExecuteDownloadCommand(cmd.Context(), appConfig, app.DownloadOptions{
				IDs:       ids,
				InputFile: inputFile,
				All:       all,
			})
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	removeCmd = &cobra.Command{
		Use:   "remove {ids}",
		Short: "Remove the local copies of videos",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, ids []string) {
			app.ExecuteRemoveCommand(cmd.Context(), appConfig, ids)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	playCmd = &cobra.Command{
		Use:   "play {id}",
		Short: "Play a downloaded video",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app.ExecutePlayCommand(cmd.Context(), appConfig, args[0])
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and all operations over a local HTTP API",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if address, _ := cmd.Flags().GetString("listen"); address != "" {
				appConfig.ListenAddress = address
			}

			app.ExecuteServeCommand(cmd.Context(), appConfig)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configSetCmd = &cobra.Command{
		Use:   "set {key} {value}",
		Short: "Set a configuration key, keeping the rest of the file intact",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Key and value.
		// The file may not be valid yet, so it is not loaded.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			app.ExecuteConfigSetCommand(cmd.Context(), configFilenameFromFlag, args[0], args[1])
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	versionCmd = &cobra.Command{
		Use:              "version",
		Short:            "Print version information",
		Args:             cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	downloadCmd.Flags().StringP("input", "i", "", "file with one video id per line.")
	downloadCmd.Flags().BoolP("all", "a", false, "download every video that is not downloaded yet.")

	serveCmd.Flags().StringP("listen", "l", "", "listen address (overrides listen_address).")

	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(listCmd, downloadCmd, removeCmd, playCmd, serveCmd, configCmd, versionCmd)
}
