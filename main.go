package main

import (
	"context"
	"log"
	"os"
	"time"

	"epifig/internal/config"
	"epifig/internal/container"

	"github.com/gin-gonic/gin"
)

func main() {
	// EPIFIG_CONFIG points at an optional YAML file; everything else can come from the environment
	appConfig, err := config.Load(os.Getenv("EPIFIG_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	c, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := c.Load(ctx); err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}

	if err := c.Server().Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
