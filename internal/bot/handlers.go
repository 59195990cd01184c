package bot

import (
	"context"
	"fmt"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/j0lvera/petbot/internal/config"
	"github.com/j0lvera/petbot/internal/pet"
	"github.com/rs/zerolog"
)

// Command outcomes reported to the Recorder
const (
	StatusOK             = "ok"
	StatusNoPhoto        = "no_photo"
	StatusDeliveryFailed = "delivery_failed"
)

// Handlers implements the start, cat and dog commands
type Handlers struct {
	fetcher  PhotoFetcher
	replies  config.Replies
	recorder Recorder
	logger   *zerolog.Logger
}

func NewHandlers(
	fetcher PhotoFetcher,
	replies config.Replies,
	recorder Recorder,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		fetcher:  fetcher,
		replies:  replies,
		recorder: recorder,
		logger:   logger,
	}
}

// Routes returns the command table for a Router
func (h *Handlers) Routes() map[Command]HandlerFunc {
	return map[Command]HandlerFunc{
		CommandStart: h.Start,
		CommandCat:   h.petPhoto(pet.Cat),
		CommandDog:   h.petPhoto(pet.Dog),
	}
}

// Start greets the user
func (h *Handlers) Start(ctx context.Context, s Sender, update *models.Update) {
	if update.Message == nil {
		return
	}
	l := loggerFrom(ctx, h.logger)
	logUserEvent(l, update.Message, CommandStart)

	status := StatusOK
	if err := h.sendText(ctx, s, update.Message.Chat.ID, h.replies.Start); err != nil {
		l.Error().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("unable to send greeting")
		status = StatusDeliveryFailed
	}
	h.recorder.CommandHandled(string(CommandStart), status)
}

func (h *Handlers) petPhoto(kind pet.Kind) HandlerFunc {
	return func(ctx context.Context, s Sender, update *models.Update) {
		if update.Message == nil {
			return
		}
		status := h.sendPetPhoto(ctx, s, update.Message, kind)
		h.recorder.CommandHandled(string(kind), status)
	}
}

// sendPetPhoto fetches a photo of kind and sends it, falling back to an
// apology text when either step fails.
func (h *Handlers) sendPetPhoto(ctx context.Context, s Sender, msg *models.Message, kind pet.Kind) string {
	l := loggerFrom(ctx, h.logger)
	logUserEvent(l, msg, Command(kind))

	chatID := msg.Chat.ID
	username, userID := sender(msg)

	photoURL, err := h.fetcher.Random(ctx, kind)
	if err != nil {
		l.Warn().
			Str("username", username).
			Int64("user_id", userID).
			Str("kind", string(kind)).
			Str("reason", pet.Reason(err)).
			Msg("photo not sent, api unavailable")

		text := fmt.Sprintf(h.replies.NoPhoto, kind.Title())
		if err := h.sendText(ctx, s, chatID, text); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("unable to send apology")
		}
		return StatusNoPhoto
	}

	l.Info().
		Str("username", username).
		Int64("user_id", userID).
		Str("kind", string(kind)).
		Str("url", photoURL).
		Msg("sending photo")

	_, err = s.SendPhoto(ctx, &tbot.SendPhotoParams{
		ChatID: chatID,
		Photo:  &models.InputFileString{Data: photoURL},
	})
	if err != nil {
		l.Error().Err(err).Str("kind", string(kind)).Int64("chat_id", chatID).Msg("unable to send photo")

		text := fmt.Sprintf(h.replies.SendFailed, kind)
		if err := h.sendText(ctx, s, chatID, text); err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("unable to send apology")
		}
		return StatusDeliveryFailed
	}

	h.recorder.MessageSent("photo")
	return StatusOK
}

func (h *Handlers) sendText(ctx context.Context, s Sender, chatID int64, text string) error {
	_, err := s.SendMessage(ctx, &tbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return err
	}
	h.recorder.MessageSent("text")
	return nil
}

func logUserEvent(l *zerolog.Logger, msg *models.Message, cmd Command) {
	username, userID := sender(msg)
	l.Info().
		Str("username", username).
		Int64("user_id", userID).
		Int64("chat_id", msg.Chat.ID).
		Str("command", "/"+string(cmd)).
		Str("text", msg.Text).
		Msg("user sent command")
}

// sender returns the author of msg. Channel posts have none.
func sender(msg *models.Message) (string, int64) {
	if msg.From == nil {
		return "", 0
	}
	return msg.From.Username, msg.From.ID
}
