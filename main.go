// Package main provides the entry point for the audiocache CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/audiocache/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	tier         string
	preload      int
	staleAge     time.Duration
	shuffle      bool
	volume       float64
	showAllFiles bool
	mouse        bool
	noAudio      bool

	rootCmd = &cobra.Command{
		Use:   "audiocache [PLAYLIST|DIR]",
		Short: "Play audio playlists with a memory-aware buffer cache",
		Long: paragraph(
			fmt.Sprintf("\nPlay audio playlists %s. Tracks are cached in memory, preloaded ahead of the playhead and evicted when budgets or memory pressure demand it.", keyword("without the stutter")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(*cobra.Command) error {
	// grab config values from Viper
	tier = viper.GetString("tier")
	preload = viper.GetInt("preload")
	staleAge = viper.GetDuration("stale_age")
	shuffle = viper.GetBool("shuffle")
	volume = viper.GetFloat64("volume")
	showAllFiles = viper.GetBool("all")
	mouse = viper.GetBool("mouse")
	noAudio = viper.GetBool("no_audio")

	switch tier {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("invalid tier %q: use low, medium or high", tier)
	}
	if preload < 0 {
		return fmt.Errorf("preload must not be negative, got %d", preload)
	}
	if staleAge < 0 {
		return fmt.Errorf("stale-age must not be negative, got %s", staleAge)
	}
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %.2f", volume)
	}
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	return runTUI(path)
}

func runTUI(path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = path
	cfg.ShowAllFiles = showAllFiles
	cfg.EnableMouse = mouse
	cfg.Tier = tier
	cfg.PreloadWidth = preload
	cfg.StaleAge = staleAge
	cfg.Shuffle = shuffle
	cfg.Volume = volume
	if noAudio {
		cfg.DisableAudio = true
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&tier, "tier", "t", "", "capacity tier: low, medium or high (default: detect from host)")
	rootCmd.Flags().IntVar(&preload, "preload", 0, "tracks to preload after the current one (0 uses the tier default)")
	rootCmd.Flags().DurationVar(&staleAge, "stale-age", 0, "idle time before a buffer is considered stale (0 uses the default)")
	rootCmd.Flags().BoolVarP(&shuffle, "shuffle", "x", false, "start with shuffled playback")
	rootCmd.Flags().Float64VarP(&volume, "volume", "v", 1.0, "playback volume between 0.0 and 1.0")
	rootCmd.Flags().BoolVarP(&showAllFiles, "all", "a", false, "show hidden and ignored files when scanning directories")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")
	rootCmd.Flags().BoolVar(&noAudio, "no-audio", false, "simulate playback instead of opening the audio device")

	// Config bindings
	_ = viper.BindPFlag("tier", rootCmd.Flags().Lookup("tier"))
	_ = viper.BindPFlag("preload", rootCmd.Flags().Lookup("preload"))
	_ = viper.BindPFlag("stale_age", rootCmd.Flags().Lookup("stale-age"))
	_ = viper.BindPFlag("shuffle", rootCmd.Flags().Lookup("shuffle"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("all", rootCmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("no_audio", rootCmd.Flags().Lookup("no-audio"))

	viper.SetDefault("tier", "")
	viper.SetDefault("preload", 0)
	viper.SetDefault("stale_age", time.Duration(0))
	viper.SetDefault("shuffle", false)
	viper.SetDefault("volume", 1.0)
	viper.SetDefault("all", false)

	rootCmd.AddCommand(configCmd, manCmd, showCmd, statsCmd, doctorCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "audiocache")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "audiocache")}, dirs...)
	}

	if c := os.Getenv("AUDIOCACHE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("audiocache")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("audiocache")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "audiocache.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
