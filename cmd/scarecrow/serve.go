package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scarecrow-ops/internal/config"
	"scarecrow-ops/internal/logging"
	"scarecrow-ops/internal/server"
	"scarecrow-ops/internal/sim"
)

var (
	servePrintOnly bool
	serveLogFile   string
	serveAddr      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulated drone backend",
	Long:  "serve starts the REST backend the dashboard talks to, backed by a simulated drone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, schemaPath)
		if err != nil {
			return err
		}

		log := logging.New()

		writer, detectWriter, cleanup, err := newWriters(servePrintOnly, serveLogFile, log)
		if err != nil {
			return err
		}
		defer cleanup()

		addr := cfg.Simulator.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		ctx = logging.NewContext(ctx, log)

		drone := sim.NewDrone(cfg.Simulator, writer, detectWriter, log)
		go drone.Run(ctx)

		log.Info("backend listening", "addr", addr, "drone_id", cfg.Simulator.DroneID)
		return server.New(drone, log).Start(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to GreptimeDB")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export telemetry/detection logs (JSONL)")
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "Listen address (overrides config)")
}
