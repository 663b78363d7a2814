// Command healthcheck probes the API's /health endpoint and exits 0 only on
// a 200 answer. It is meant for container HEALTHCHECK directives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/health"
)

func main() {
	_ = godotenv.Load()

	defaultURL := "http://127.0.0.1:3000/health"
	if port := os.Getenv("PORT"); port != "" {
		defaultURL = "http://127.0.0.1:" + port + "/health"
	}

	cfg := health.DefaultConfig()
	url := flag.String("url", defaultURL, "Health endpoint")
	flag.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries on connection errors")
	timeout := flag.Duration("timeout", 10*time.Second, "Overall deadline")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := health.NewProbe(cfg, nil).Check(ctx, *url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		os.Exit(1)
	}
	fmt.Println(report.Status)
}
