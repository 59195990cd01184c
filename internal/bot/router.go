package bot

import (
	"context"
	"sort"
	"strings"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// Command is a recognized bot command
type Command string

const (
	CommandStart Command = "start"
	CommandCat   Command = "cat"
	CommandDog   Command = "dog"
)

// aliases lists every accepted spelling, without the leading slash
var aliases = map[string]Command{
	"start": CommandStart,
	"Start": CommandStart,
	"cat":   CommandCat,
	"Cat":   CommandCat,
	"dog":   CommandDog,
	"Dog":   CommandDog,
}

// ParseCommand extracts the command from a message text such as
// "/cat", "/Cat@petbot" or "/dog please".
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	cmd, ok := aliases[name]
	return cmd, ok
}

// Router maps commands to handlers
type Router struct {
	routes map[Command]HandlerFunc
	logger *zerolog.Logger
}

// NewRouter creates a router over routes
func NewRouter(routes map[Command]HandlerFunc, logger *zerolog.Logger) *Router {
	return &Router{
		routes: routes,
		logger: logger,
	}
}

// Commands returns the routed commands in a stable order
func (r *Router) Commands() []Command {
	cmds := make([]Command, 0, len(r.routes))
	for cmd := range r.routes {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })
	return cmds
}

// Register adds one match func per routed command and returns the number of
// registrations.
func (r *Router) Register(reg Registrar) int {
	n := 0
	for _, cmd := range r.Commands() {
		reg.RegisterHandlerMatchFunc(matchCommand(cmd), r.handle)
		n++
	}
	r.logger.Debug().Int("commands", n).Msg("handlers registered")
	return n
}

// handle is the client handler behind every registered match func.
func (r *Router) handle(ctx context.Context, b *tbot.Bot, update *models.Update) {
	if !r.Dispatch(ctx, b, update) {
		r.Ignore(ctx, b, update)
	}
}

// Dispatch runs the handler for the update's command. It reports whether a
// handler was found.
func (r *Router) Dispatch(ctx context.Context, s Sender, update *models.Update) bool {
	if update.Message == nil {
		return false
	}

	cmd, ok := ParseCommand(update.Message.Text)
	if !ok {
		return false
	}

	handler, ok := r.routes[cmd]
	if !ok {
		return false
	}

	handler(ctx, s, update)
	return true
}

// Ignore is the default handler for updates no command matched
func (r *Router) Ignore(ctx context.Context, _ *tbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	loggerFrom(ctx, r.logger).Debug().
		Int64("chat_id", update.Message.Chat.ID).
		Str("text", update.Message.Text).
		Msg("ignoring message")
}

func matchCommand(cmd Command) tbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		got, ok := ParseCommand(update.Message.Text)
		return ok && got == cmd
	}
}
