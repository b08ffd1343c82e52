package bot

import (
	"context"
	"fmt"

	"servercv/dashboard/internal/logging"

	"github.com/bwmarrin/discordgo"
)

func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		if msgL <= discordgo.LogError {
			logging.Error(fmt.Sprintf(format, a...), "source", "discordgo")
			return
		}
		logging.Debug(fmt.Sprintf(format, a...), "source", "discordgo")
	}
}

// NewSession builds a bot session. It is not opened.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning
	return session, nil
}

// Bot connects to the gateway and serves the /setup command.
type Bot struct {
	session *discordgo.Session
	setup   *SetupHandler
}

func New(session *discordgo.Session, setup *SetupHandler) *Bot {
	return &Bot{session: session, setup: setup}
}

// Run blocks until ctx is cancelled, then closes the gateway connection.
func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot connected", "user", r.User.Username, "guilds", len(r.Guilds))
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", SetupCommand()); err != nil {
			logging.Error("Failed to register /setup", "error", err)
		}
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.setup.Handle(ctx, s, i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	<-ctx.Done()
	logging.Info("Bot shutting down")
	return b.session.Close()
}
