package main

import (
	"context"
	"fmt"
	"log"

	"github.com/m3rciful/catalogbot/bot/app"
	"github.com/m3rciful/catalogbot/bot/config"
	corecmd "github.com/m3rciful/catalogbot/core/cmd"
)

func main() {
	if err := corecmd.Run(corecmd.Options{
		Name:              "catalogbot",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.Bootstrap(ctx, cfg)
		},
	}); err != nil {
		log.Fatal(err)
	}
}
