package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Invalid environment configuration, using defaults: %v", err)
		cfg = config.Default()
	}

	// Flags override environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Server host")
	dir := flag.String("dir", cfg.Sensor.Dir, "Directory watched for marker events")
	pattern := flag.String("pattern", cfg.Sensor.Pattern, "Glob selecting event file names")
	keep := flag.Bool("keep", !cfg.Sensor.Consume, "Leave event files in place after processing")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (console logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Sensor.Dir = *dir
	cfg.Sensor.Pattern = *pattern
	cfg.Sensor.Consume = !*keep
	cfg.Logging.Development = *dev
	if *dev {
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		_ = srv.Close()
		log.Fatalf("Server error: %v", err)
	}
}
