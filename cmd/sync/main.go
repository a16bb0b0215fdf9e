package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/internal/app"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	runJob := flag.String("run", "", "run one job (currency, catalog, valuation) and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := app.RunSync(context.Background(), cfg, *runJob); err != nil {
		fmt.Fprintf(os.Stderr, "skin sync: %v\n", err)
		os.Exit(1)
	}
}
