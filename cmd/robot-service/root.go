package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"robot-service/internal/config"
	"robot-service/internal/core"
	"robot-service/internal/hardware"
	"robot-service/internal/logger"
	"robot-service/internal/messaging"
	"robot-service/internal/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "robot-service",
	Short: "Command-based robot control service",
	Long: `robot-service runs the robot's control loop: it reads the driver station
joysticks, schedules commands on the subsystems and publishes telemetry to Redis.
Modes (disabled, autonomous, teleop, estop) are requested through Redis.`,
	SilenceUsage: true,
	RunE:         runRobot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config (default "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().Int("log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
}

// loadConfig reads the config named by --config; --log overrides the
// configured level when given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log") {
		cfg.LogLevel, _ = cmd.Flags().GetInt("log")
	}
	return cfg, nil
}

func runRobot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Running under systemd, the journal adds timestamps
	underSystemd := os.Getenv("INVOCATION_ID") != ""
	l := logger.New(os.Stdout, logger.LogLevel(cfg.LogLevel), underSystemd)

	l.Infof("Starting robot service...")

	io := hardware.NewLinuxHardwareIO(cfg, l.WithTag("hardware"))
	redis := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.DB, l.WithTag("redis"))
	system := core.NewRobotSystem(cfg, io, redis, l.WithTag("robot"))

	var server *metrics.Server
	if cfg.Metrics.Addr != "" {
		collector := metrics.NewCollector()
		system.SetMonitor(collector)
		server = metrics.NewServer(cfg.Metrics.Addr, metrics.NewHandler(collector, system.Latest, l.WithTag("metrics")), l.WithTag("metrics"))
		server.Start()
	}

	if err := system.Start(); err != nil {
		system.Shutdown()
		l.Fatalf("Failed to start system: %v", err)
	}

	l.Infof("System started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	system.Shutdown()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			l.Warnf("Metrics server shutdown: %v", err)
		}
	}
	l.Infof("Shutdown complete")
	return nil
}
