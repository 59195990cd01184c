package bot

import (
	"context"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/j0lvera/petbot/internal/pet"
)

// Sender is the delivery side of the telegram client
type Sender interface {
	SendMessage(ctx context.Context, params *tbot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *tbot.SendPhotoParams) (*models.Message, error)
}

// Registrar accepts handlers for matching updates
type Registrar interface {
	RegisterHandlerMatchFunc(matchFunc tbot.MatchFunc, f tbot.HandlerFunc, m ...tbot.Middleware) string
}

// PhotoFetcher returns a random photo url for a kind of pet
type PhotoFetcher interface {
	Random(ctx context.Context, kind pet.Kind) (string, error)
}

// Recorder counts command outcomes and delivered messages
type Recorder interface {
	CommandHandled(command, status string)
	MessageSent(kind string)
}

// HandlerFunc handles one command update
type HandlerFunc func(ctx context.Context, s Sender, update *models.Update)
