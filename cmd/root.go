package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/ffgrab/internal/fetch"
	"github.com/tanq16/ffgrab/internal/ffmpeg"
	"github.com/tanq16/ffgrab/internal/output"
	"github.com/tanq16/ffgrab/internal/utils"
)

var (
	installRoot string
	platform    string
	mirrorsFile string
	connections int
	timeout     time.Duration
	kaTimeout   time.Duration
	userAgent   string
	proxyURL    string
	noAria2     bool
	debug       bool
)

var FFgrabVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "ffgrab",
	Short:   "FFgrab downloads and installs a static FFmpeg bundle",
	Version: FFgrabVersion,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if installRoot == "" {
			installRoot = ffmpeg.DefaultInstallRoot()
		}
		if platform == "" {
			platform = runtime.GOOS
		}
		var mirrors []string
		if mirrorsFile != "" {
			set, err := ffmpeg.LoadMirrorsFile(mirrorsFile)
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to read mirrors file: %v", err))
				os.Exit(1)
			}
			mirrors = set.For(platform)
		}
		aria2Path := ""
		if !noAria2 {
			aria2Path = fetch.FindAria2(installRoot)
		}

		// Ctrl-C cancels in-flight downloads and cleans up temp files.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := ffmpeg.Config{
			InstallRoot: installRoot,
			Platform:    platform,
			Mirrors:     mirrors,
			Connections: connections,
			Aria2Path:   aria2Path,
			HTTPClientConfig: utils.HTTPClientConfig{
				Timeout:   timeout,
				KATimeout: kaTimeout,
				ProxyURL:  proxyURL,
				UserAgent: userAgent,
			},
		}
		ok := ffmpeg.EnsureInstalled(ctx, cfg, func(status string) {
			output.PrintStatusLine(status)
		})
		output.EndStatusLine()
		if !ok {
			output.PrintError("FFmpeg installation failed")
			os.Exit(1)
		}
		output.PrintSuccess(fmt.Sprintf("%s FFmpeg available at %s", output.StyleSymbols["pass"], ffmpeg.ExecutablePath(installRoot)))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&installRoot, "root", "r", "", "Install root directory (default is per-user config dir)")
	rootCmd.Flags().StringVar(&platform, "platform", "", "Target platform (windows, darwin, linux); defaults to current OS")
	rootCmd.Flags().StringVarP(&mirrorsFile, "mirrors", "m", "", "Path to YAML file overriding the built-in mirror lists")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", utils.DefaultConnections, "Number of connections per download (above 5 enables high-thread-mode)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().BoolVar(&noAria2, "no-aria2", false, "Skip the external aria2 downloader even if installed")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newCleanCmd())
}
