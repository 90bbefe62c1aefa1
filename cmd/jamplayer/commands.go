package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jamplayer",
		Short: "Terminal music player for Jamendo and local files",
		Long:  `Browse the Jamendo catalog, your local music directory and cached tracks, and play them in the terminal.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setupLogging(cmd.Name() == "tui" || cmd.Name() == "jamplayer")
		},
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}

	rootCmd.AddCommand(app.createTUICommand(ctx))
	rootCmd.AddCommand(app.createSearchCommand(ctx))
	rootCmd.AddCommand(app.createLocalCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createCacheCommand(ctx))
	rootCmd.AddCommand(createVersionCommand())

	return rootCmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("jamplayer %s\n", version)
		},
	}
}
