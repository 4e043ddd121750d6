package main

import (
	"tg-market/pkg/config"
	app "tg-market/services/moderation/internal/app"
)

// @title           Moderation Service API
// @version         1.0
// @description     Automatic screening and the admin review queue for tg-market listings.

// @host      localhost:8004
// @BasePath  /api/v1

// @securityDefinitions.basic BasicAuth

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.AdminPasswordHash == "" {
		panic("ADMIN_PASSWORD_HASH must be set in environment variables")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}
