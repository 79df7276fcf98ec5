package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cratewatch/cratewatch/internal/bot"
	"github.com/cratewatch/cratewatch/internal/common/config"
	"github.com/cratewatch/cratewatch/internal/common/logger"
	"github.com/cratewatch/cratewatch/internal/common/output"
	"github.com/cratewatch/cratewatch/internal/common/version"
	"github.com/cratewatch/cratewatch/internal/crates"
	"github.com/cratewatch/cratewatch/internal/matrix"
	"github.com/cratewatch/cratewatch/internal/watch"
)

var (
	username        string
	password        string
	room            string
	homeserverURL   string
	updateFrequency int
	configPath      string
	seedPath        string
	verbose         bool
	quiet           bool
	noColor         bool
)

var rootCmd = &cobra.Command{
	Use:   "cratewatch",
	Short: "Matrix bot watching crates.io for version changes",
	Long: `cratewatch joins a Matrix room, answers !add / !remove / !list / !help
commands to manage a list of watched crates, and periodically checks
crates.io for new versions, announcing changes into the room.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
	},
	RunE:         runBot,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "Matrix username")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "Matrix password")
	rootCmd.Flags().StringVarP(&room, "room", "r", "", "Matrix room to serve")
	rootCmd.Flags().StringVar(&homeserverURL, "homeserver-url", "", "Matrix homeserver URL")
	rootCmd.Flags().IntVarP(&updateFrequency, "update-frequency", "f", 0, "How often to check crates.io, in seconds")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.Flags().StringVar(&seedPath, "seed", "", "Path to a TOML file of crates to watch at startup")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig assembles the effective configuration from the config
// file and flag overrides. Flags win over file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("username") {
		cfg.Matrix.Username = username
	}
	if cmd.Flags().Changed("password") {
		cfg.Matrix.Password = password
	}
	if cmd.Flags().Changed("room") {
		cfg.Matrix.Room = room
	}
	if cmd.Flags().Changed("homeserver-url") {
		cfg.Matrix.HomeserverURL = homeserverURL
	}
	if cmd.Flags().Changed("update-frequency") {
		cfg.Poll.UpdateFrequency = updateFrequency
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed.Path = seedPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seedWatchList resolves each crate from the seed file and inserts it
// into the watch list. Crates that fail to resolve are logged and
// skipped; a bad seed file aborts startup.
func seedWatchList(path string, registry bot.Registry, list *watch.List) error {
	seed, err := watch.LoadSeed(path)
	if err != nil {
		return err
	}

	for _, name := range seed.Names() {
		latest, err := registry.LatestVersion(name)
		if err != nil {
			logger.Warn("seed: skipping %s: %v", name, err)
			continue
		}
		list.Set(name, latest)
		logger.Debug("seed: watching %s at version %s", name, latest)
	}

	logger.Info("seeded %d of %d crates from %s", list.Len(), len(seed.Crates), path)
	return nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry := crates.NewClient()
	list := watch.NewList()

	if cfg.Seed.Path != "" {
		if err := seedWatchList(cfg.Seed.Path, registry, list); err != nil {
			return err
		}
	}

	transport, err := matrix.Connect(cfg.Matrix.HomeserverURL, cfg.Matrix.Username, cfg.Matrix.Password)
	if err != nil {
		return err
	}
	if err := transport.JoinRoom(cfg.Matrix.Room); err != nil {
		return err
	}

	handler := bot.NewHandler(registry, transport, list, cfg.Matrix.Room)
	transport.OnMessage(func(roomID, sender, body string) {
		handler.HandleMessage(bot.Message{RoomID: roomID, Sender: sender, Body: body})
	})

	interval := time.Duration(cfg.Poll.UpdateFrequency) * time.Second
	poller := bot.NewPoller(registry, transport, list, cfg.Matrix.Room, interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	// Stop the sync loop on SIGINT/SIGTERM so Run returns cleanly.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		cancel()
		transport.Stop()
	}()

	if !quiet {
		output.Headerf("cratewatch %s", version.Short())
		output.Infof("serving %s as %s, checking crates.io every %ds",
			cfg.Matrix.Room, transport.UserID(), cfg.Poll.UpdateFrequency)
	}

	return transport.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
