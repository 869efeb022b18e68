package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/ffgrab/internal/ffmpeg"
	"github.com/tanq16/ffgrab/internal/output"
	"github.com/tanq16/ffgrab/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clean up temporary download files",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			root := installRoot
			if root == "" {
				root = ffmpeg.DefaultInstallRoot()
			}
			if err := utils.CleanTempDirs(root); err != nil {
				output.PrintError("Error cleaning up temporary files")
				return
			}
			output.PrintSuccess("Temporary files cleaned up")
		},
	}
}
