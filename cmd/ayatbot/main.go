package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	corecmd "github.com/m3rciful/ayatbot/core/cmd"
	"github.com/m3rciful/ayatbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("ayatbot: %v", err)
	}
}
