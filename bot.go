package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"harbor-go/cogs"
	"harbor-go/utils"
)

const (
	statusStarting     = "starting"
	statusConnecting   = "connecting"
	statusOnline       = "online"
	statusDisconnected = "disconnected"
	statusStopping     = "shutting_down"
)

const botIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent

// Bot owns the gateway session, the interaction router, the scheduler and
// the HTTP API for one process
type Bot struct {
	cfg       *utils.Config
	session   *discordgo.Session
	router    *Router
	scheduler *utils.Scheduler
	api       *API
	logger    *slog.Logger
	status    atomic.Value
}

// newSession creates a discordgo session with the bot's intents and routes
// discordgo's own logging through slog
func newSession(cfg *utils.Config, logger *slog.Logger) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	discordgo.Logger = utils.DiscordgoLogger(context.Background(), logger)
	s.LogLevel = utils.DiscordgoLogLevel(cfg.Level())
	s.Identify.Intents = botIntents
	s.StateEnabled = true
	return s, nil
}

func NewBot(cfg *utils.Config, logger *slog.Logger) (*Bot, error) {
	s, err := newSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	b := &Bot{
		cfg:       cfg,
		session:   s,
		router:    NewCommandRouter(logger),
		scheduler: utils.NewScheduler(logger.With("logger", "scheduler")),
		logger:    logger,
	}
	b.status.Store(statusStarting)
	b.api = NewAPI(cfg.HTTP, b.Status, logger)
	return b, nil
}

// Status returns the gateway state
func (b *Bot) Status() string {
	return b.status.Load().(string)
}

// Run connects every backend, opens the gateway and blocks until ctx is
// done or the HTTP server fails
func (b *Bot) Run(ctx context.Context) error {
	dbCtx, cancel := context.WithTimeout(ctx, utils.DefaultDatabaseTimeout)
	if err := utils.SetupDatabase(dbCtx, b.cfg.DatabaseURL); err != nil {
		b.logger.Warn("continuing without database persistence", tint.Err(err))
	}
	cancel()
	defer utils.CloseDatabase()

	if err := utils.SetupCooldowns(ctx, b.cfg.Redis); err != nil {
		b.logger.Warn("using in-memory cooldowns", tint.Err(err))
	}
	defer utils.CooldownStore.Close()

	if err := utils.Tickets.Load(ctx); err != nil {
		b.logger.Warn("could not load open tickets", tint.Err(err))
	}

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onDisconnect)
	b.session.AddHandler(b.router.Handler())
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		cogs.HandleVerifyMessage(s, m)
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		cogs.HandleMemberJoin(s, m)
	})

	b.status.Store(statusConnecting)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}

	for _, job := range utils.HousekeepingJobs(b.session) {
		if err := b.scheduler.Add(job); err != nil {
			b.logger.Error("failed to schedule job", tint.Err(err))
		}
	}
	b.scheduler.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.api.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err := g.Wait()
	b.shutdown()
	return err
}

func (b *Bot) shutdown() {
	b.status.Store(statusStopping)
	b.logger.Info("shutting down")
	b.scheduler.Stop()
	if err := b.session.Close(); err != nil {
		b.logger.Warn("error closing gateway", tint.Err(err))
	}
	utils.Metrics.LogSnapshot()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.status.Store(statusOnline)
	b.logger.Info("logged in", "username", r.User.Username, "user_id", r.User.ID, "guilds", len(r.Guilds))

	if err := s.UpdateCustomStatus(b.cfg.Status); err != nil {
		b.logger.Warn("failed to update status", tint.Err(err))
	}

	appID := b.cfg.Discord.AppID
	if appID == "" {
		appID = r.User.ID
	}
	if err := registerCommands(context.Background(), s, appID, b.cfg.Discord.GuildID); err != nil {
		b.logger.Error("failed to register commands", tint.Err(err))
	}
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	if b.Status() == statusStopping {
		return
	}
	b.status.Store(statusDisconnected)
	b.logger.Warn("gateway disconnected")
}
