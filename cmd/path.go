package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/ffgrab/internal/ffmpeg"
	"github.com/tanq16/ffgrab/internal/output"
)

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the FFmpeg executable path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			root := installRoot
			if root == "" {
				root = ffmpeg.DefaultInstallRoot()
			}
			if !ffmpeg.IsAvailable(root) {
				output.PrintWarning("FFmpeg is not installed; run ffgrab to install it")
				os.Exit(1)
			}
			fmt.Println(ffmpeg.ExecutablePath(root))
		},
	}
}
