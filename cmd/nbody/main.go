package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/softwarewrighter/n-body/internal/config"
	"github.com/softwarewrighter/n-body/internal/server"
	"github.com/softwarewrighter/n-body/internal/tui"
)

var (
	configFile string
	host       string
	port       int
	particles  int
	staticDir  string
	debug      bool
	watchURL   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nbody",
		Short: "real-time galaxy collision simulation server",
		Run: func(cmd *cobra.Command, args []string) {
			// default to serving when no subcommand is given
			if err := runServe(cmd, args); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file path (yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the simulation server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().IntVar(&particles, "particles", 0, "default particle count (overrides config)")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "static asset directory (overrides config)")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "verbose progress reporting")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "attach a terminal monitor to a running server",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchURL, "url", "ws://localhost:4000/ws", "server websocket URL")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configFile); err == nil {
				return fmt.Errorf("%s already exists", configFile)
			}
			if err := config.Save(configFile, config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", configFile)
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(serveCmd, watchCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if particles != 0 {
		cfg.Simulation.DefaultParticles = particles
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}
	if debug {
		cfg.Server.Debug = true
	}

	return server.New(cfg).ListenAndServe()
}

func runWatch(cmd *cobra.Command, args []string) error {
	return tui.Run(watchURL)
}
