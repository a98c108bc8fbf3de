package main

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/utils"
)

// Router dispatches interactions to handlers: slash commands by name,
// components and modals by custom-ID prefix
type Router struct {
	commands   map[string]utils.HandlerFunc
	components map[string]utils.HandlerFunc
	limiter    *utils.UserRateLimiter
	metrics    *utils.MetricsRecorder
	logger     *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		commands:   map[string]utils.HandlerFunc{},
		components: map[string]utils.HandlerFunc{},
		limiter:    utils.RateLimiter,
		metrics:    utils.Metrics,
		logger:     logger.With("logger", "router"),
	}
}

// Command attaches a slash command handler
func (r *Router) Command(name string, h utils.HandlerFunc) {
	r.commands[name] = h
}

// Component attaches a handler for custom IDs starting with prefix
func (r *Router) Component(prefix string, h utils.HandlerFunc) {
	r.components[prefix] = h
}

func (r *Router) lookup(i *discordgo.InteractionCreate) (utils.HandlerFunc, bool) {
	var h utils.HandlerFunc
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h = r.commands[i.ApplicationCommandData().Name]
	case discordgo.InteractionMessageComponent:
		h = r.components[utils.CustomIDPrefix(i.MessageComponentData().CustomID)]
	case discordgo.InteractionModalSubmit:
		h = r.components[utils.CustomIDPrefix(i.ModalSubmitData().CustomID)]
	}
	return h, h != nil
}

// Dispatch handles one interaction. Unknown interactions are ignored and
// rate-limited users get an ephemeral notice instead of the handler.
func (r *Router) Dispatch(s utils.Discord, i *discordgo.InteractionCreate) {
	h, ok := r.lookup(i)
	if !ok {
		r.logger.Debug("no handler for interaction", utils.InteractionAttrs(i)...)
		return
	}

	if !r.limiter.Allow(utils.InteractionUserID(i)) {
		r.metrics.RateLimitedHit()
		r.logger.Debug("rate limited", utils.InteractionAttrs(i)...)
		if err := utils.RespondContent(s, i, "⏳ "+utils.SlowDownMessage, true); err != nil {
			r.logger.Warn("failed to send rate limit notice", append(utils.InteractionAttrs(i), tint.Err(err))...)
		}
		return
	}

	start := time.Now()
	err := r.invoke(s, i, h)
	elapsed := time.Since(start)
	r.metrics.Observe(elapsed, err)

	if err != nil {
		r.logger.Error("interaction failed", append(utils.InteractionAttrs(i), "elapsed", elapsed, tint.Err(err))...)
		return
	}
	r.logger.Debug("interaction handled", append(utils.InteractionAttrs(i), "elapsed", elapsed)...)
}

func (r *Router) invoke(s utils.Discord, i *discordgo.InteractionCreate, h utils.HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.PanicRecovered()
			err = fmt.Errorf("handler panicked: %v", rec)
			r.logger.Error("recovered from panic", append(utils.InteractionAttrs(i), "panic", rec, "stack", string(debug.Stack()))...)
			if respErr := utils.RespondError(s, i, "Something went wrong. Please try again."); respErr != nil {
				_ = utils.TryEphemeralFollowup(s, i, "❌ Something went wrong. Please try again.")
			}
		}
	}()
	return h(s, i)
}

// Handler adapts Dispatch to a discordgo event handler
func (r *Router) Handler() func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		r.Dispatch(s, i)
	}
}
