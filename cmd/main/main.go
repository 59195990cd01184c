package main

import (
	"fmt"
	"os"

	"github.com/j0lvera/petbot/internal/bot"
	"github.com/j0lvera/petbot/internal/config"
	"github.com/j0lvera/petbot/internal/log"
	"github.com/j0lvera/petbot/internal/metrics"
	"github.com/j0lvera/petbot/internal/pet"
	"go.uber.org/fx"
)

func main() {
	logger, closer, err := log.NewLogger(log.OptionsFromEnv())
	if err != nil {
		fmt.Fprintln(os.Stderr, "unable to create logger:", err)
		os.Exit(1)
	}
	defer closer.Close()

	logger.Info().Msg("bot starting")

	fx.New(
		log.Module(logger),
		config.Module(),
		metrics.Module(),
		pet.Module(),
		bot.Module(),
	).Run()
}
