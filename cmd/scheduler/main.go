package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-workforce/internal/app"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := app.RunScheduler(); err != nil {
		logger.Fatal("run scheduler failed", zap.Error(err))
	}
}
