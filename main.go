// Package main provides the entry point for the ashtra CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashtra-audio/ashtra/internal/ambience"
	"github.com/ashtra-audio/ashtra/internal/api"
	"github.com/ashtra-audio/ashtra/internal/audio"
	"github.com/ashtra-audio/ashtra/internal/cache"
	"github.com/ashtra-audio/ashtra/internal/mixer"
	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/queue"
	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/ashtra-audio/ashtra/ui"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile     string
	server         string
	ambienceURL    string
	noAudio        bool
	voiceVolume    float64
	ambienceVolume float64
	mouse          bool

	rootCmd = &cobra.Command{
		Use:   "ashtra",
		Short: "Generate and play multi-speaker podcasts in your terminal",
		Long: paragraph(
			fmt.Sprintf("\nGenerate and play %s in your terminal.", keyword("multi-speaker podcasts")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI()
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	server = strings.TrimRight(viper.GetString("server"), "/")
	if server == "" {
		return errors.New("no server configured")
	}
	ambienceURL = viper.GetString("ambience_url")
	if ambienceURL == "" {
		ambienceURL = server + "/assets/whitenoise.mp3"
	}
	mouse = viper.GetBool("mouse")
	noAudio = !viper.GetBool("audio.enabled")
	if cmd.Flags().Changed("no-audio") {
		noAudio, _ = cmd.Flags().GetBool("no-audio")
	}

	voiceVolume = viper.GetFloat64("volume.voice")
	ambienceVolume = viper.GetFloat64("volume.ambience")
	for name, v := range map[string]float64{"voice": voiceVolume, "ambience": ambienceVolume} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s volume must be between 0 and 1, got %.2f", name, v)
		}
	}

	if size := viper.GetInt("audio.cache_size"); size < 0 || size > 4096 {
		return fmt.Errorf("audio cache_size must be between 0 and 4096 MB, got %d", size)
	}
	if viper.GetFloat64("http.rate") < 0 {
		return errors.New("http rate must not be negative")
	}
	return nil
}

func newClient() (*api.Client, error) {
	c, err := api.New(server,
		api.WithTimeout(viper.GetDuration("http.timeout")),
		api.WithRate(viper.GetFloat64("http.rate")),
		api.WithLogger(log.WithPrefix("api")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create client: %w", err)
	}
	return c, nil
}

// player holds the audio backend chosen at startup.
type player struct {
	deck   playback.Deck
	loop   ambience.Loop
	silent bool
	stats  func() cache.Stats
}

// newPlayer opens the audio device, falling back to the silent backend when
// audio is disabled or unavailable.
func newPlayer(client *api.Client, wpm int) player {
	silent := player{
		deck:   audio.NewSilentDeck(wpm),
		loop:   &audio.SilentLoop{},
		silent: true,
	}
	if noAudio {
		log.Info("audio disabled, using silent backend")
		return silent
	}

	engine, err := audio.NewEngine(audio.DefaultEngineConfig())
	if err != nil {
		log.Warn("unable to open audio device, using silent backend", "error", err)
		return silent
	}

	var c *cache.LRU
	if size := viper.GetInt64("audio.cache_size"); size > 0 {
		c = cache.NewLRU(size << 20)
	}
	deck := audio.NewDeck(engine, client, c, log.WithPrefix("audio"))
	return player{
		deck:  deck,
		loop:  audio.NewLoop(engine, client, ambienceURL, log.WithPrefix("ambience")),
		stats: deck.CacheStats,
	}
}

func runTUI() error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Server = server
	cfg.EnableMouse = mouse

	client, err := newClient()
	if err != nil {
		return err
	}
	p := newPlayer(client, cfg.SilentRateWPM)
	cfg.Silent = p.silent

	ctrl := playback.NewController(queue.New(), p.deck, playback.Config{
		Volume: voiceVolume,
		Logger: log.WithPrefix("playback"),
	})
	amb := ambience.New(p.loop, ambienceVolume, log.WithPrefix("ambience"))
	ctrl.Observe(amb)

	mx := mixer.New(voiceVolume, ambienceVolume)
	mx.Attach(mixer.Voice, ctrl)
	mx.Attach(mixer.Ambience, amb)

	store := session.NewStore(ctrl, client, client, session.WithLogger(log.WithPrefix("session")))

	// Run Bubble Tea program
	_, runErr := ui.NewProgram(cfg, store, mx, amb).Run()

	if err := ctrl.Close(); err != nil {
		log.Warn("closing voice track", "error", err)
	}
	if c, ok := p.loop.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn("closing ambience loop", "error", err)
		}
	}
	if p.stats != nil {
		log.Debug("audio cache", "stats", p.stats().String())
	}

	if runErr != nil {
		return fmt.Errorf("unable to run tui program: %w", runErr)
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
	// A .env file in the working directory may provide ASHTRA_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not parse .env file", "err", err)
	}

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
	rootCmd.PersistentFlags().String("server", api.DefaultServer, "backend base URL")
	rootCmd.Flags().Bool("no-audio", false, "play silently, timing segments from their transcripts")
	rootCmd.Flags().Float64("voice-volume", mixer.DefaultVoice, "initial voice volume (0-1)")
	rootCmd.Flags().Float64("ambience-volume", mixer.DefaultAmbience, "initial ambience volume (0-1)")
	rootCmd.Flags().BoolP("mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("volume.voice", rootCmd.Flags().Lookup("voice-volume"))
	_ = viper.BindPFlag("volume.ambience", rootCmd.Flags().Lookup("ambience-volume"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("server", api.DefaultServer)
	viper.SetDefault("ambience_url", "")
	viper.SetDefault("volume.voice", mixer.DefaultVoice)
	viper.SetDefault("volume.ambience", mixer.DefaultAmbience)
	viper.SetDefault("audio.enabled", true)
	viper.SetDefault("audio.cache_size", 64)
	viper.SetDefault("http.timeout", "120s")
	viper.SetDefault("http.rate", 4)
	viper.SetDefault("mouse", false)

	rootCmd.AddCommand(configCmd, manCmd, historyCmd, showCmd, doctorCmd, devserverCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "ashtra")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "ashtra")}, dirs...)
	}

	if c := os.Getenv("ASHTRA_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("ashtra")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("ashtra")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
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

	configFile = filepath.Join(dirs[0], "ashtra.yml")
	if _, err := writeDefaultConfig(configFile); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
