package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/einkframe/api/client"
	"github.com/aouyang1/einkframe/api/models"
	"github.com/aouyang1/einkframe/config"
	"github.com/aouyang1/einkframe/slideshow"
	"github.com/spf13/cobra"
)

var serverURL string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "frame web api address (default $DPF_SERVER_URL or http://localhost:8080)")

	statusCmd.Flags().Bool("json", false, "print the raw status json")
	startCmd.Flags().Int("interval", 0, fmt.Sprintf("minutes between photos, one of %v (default: stored interval)", slideshow.IntervalOptions))

	rootCmd.AddCommand(nextCmd, prevCmd, showCmd, startCmd, stopCmd, statusCmd, infoCmd, syncCmd, photosCmd)
}

func frameClient() (*client.FrameClient, error) {
	if serverURL != "" {
		return client.NewFrameClient(serverURL), nil
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	return client.NewFrameClient(cfg.ServerURL), nil
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next photo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		ref, err := fc.Next(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "showing %s\n", ref.ID)
		return nil
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Show the previous photo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		ref, err := fc.Previous(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "showing %s\n", ref.ID)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a specific cached photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		ref, err := fc.Show(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "showing %s\n", ref.ID)
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the slideshow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		minutes, err := cmd.Flags().GetInt("interval")
		if err != nil {
			return err
		}
		if minutes != 0 && !slideshow.ValidInterval(minutes) {
			return &slideshow.InvalidIntervalError{Minutes: minutes}
		}

		fc, err := frameClient()
		if err != nil {
			return err
		}
		status, err := fc.Start(cmd.Context(), minutes)
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the slideshow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		status, err := fc.Stop(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the slideshow status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		status, err := fc.Status(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Draw the info screen on the panel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		return fc.ShowInfo(cmd.Context())
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync photos from the configured bucket now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		result, err := fc.Sync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d, deleted %d\n", result.Downloaded, result.Deleted)
		return nil
	},
}

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "List cached photos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fc, err := frameClient()
		if err != nil {
			return err
		}
		photos, err := fc.ListPhotos(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range photos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ModTime.Local().Format(time.DateTime), p.ID)
		}
		return nil
	},
}

func printStatus(w io.Writer, status *models.StatusResponse) {
	state := "stopped"
	if status.Running {
		state = "running"
	}
	fmt.Fprintf(w, "slideshow: %s (enabled=%t)\n", state, status.Enabled)
	fmt.Fprintf(w, "interval:  %d min\n", status.IntervalMinutes)
	fmt.Fprintf(w, "order:     %s\n", status.OrderMode)
	fmt.Fprintf(w, "photos:    %d\n", status.PhotoCount)
	if status.NextRun != nil {
		fmt.Fprintf(w, "next run:  %s\n", status.NextRun.Local().Format(time.DateTime))
	}
	if status.Current != nil {
		fmt.Fprintf(w, "showing:   %s\n", status.Current.ID)
	}
}
