// Package bot answers the slash commands users send to the Telegram bot.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"teamreports/identity"
	"teamreports/metrics"
	"teamreports/models"
	"teamreports/store"
)

const (
	welcomeAdmin    = "Welcome, Admin! 👋\n\nAccess your admin dashboard to manage teams and view reports."
	welcomeEmployee = "Welcome! 👋\n\nClick the button below to submit your daily report."
	helpText        = "Available commands:\n/start - open the report app\n/myreports - how many reports you have submitted\n/help - show this message"
	unknownText     = "Unknown command. Send /help to see what I can do."
	failureText     = "Sorry, something went wrong. Please try again later."
)

type IdentityResolver interface {
	Resolve(ctx context.Context, id identity.Identity) (*models.User, bool, error)
}

type ReportCounter interface {
	CountReports(ctx context.Context, filter store.ReportFilter) (int64, error)
}

type Handler struct {
	messenger Messenger
	resolver  IdentityResolver
	reports   ReportCounter
	appURL    string
}

func NewHandler(messenger Messenger, resolver IdentityResolver, reports ReportCounter, appURL string) *Handler {
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return &Handler{messenger: messenger, resolver: resolver, reports: reports, appURL: appURL}
}

// HandleUpdate processes one webhook delivery. Messages that are not commands
// are ignored. When a command fails the user gets an apology and the error is
// returned for logging.
func (h *Handler) HandleUpdate(ctx context.Context, update *tgmodels.Update) error {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return nil
	}
	msg := update.Message
	command, ok := parseCommand(msg.Text)
	if !ok {
		return nil
	}
	metrics.BotUpdates.WithLabelValues(metricLabel(command)).Inc()

	logrus.WithFields(logrus.Fields{
		"command":     command,
		"telegram_id": msg.From.ID,
	}).Info("Handling bot command")

	var err error
	switch command {
	case "/start":
		err = h.start(ctx, msg)
	case "/help":
		err = h.messenger.SendText(ctx, msg.Chat.ID, helpText)
	case "/myreports":
		err = h.myReports(ctx, msg)
	default:
		err = h.messenger.SendText(ctx, msg.Chat.ID, unknownText)
	}
	if err != nil {
		if sendErr := h.messenger.SendText(ctx, msg.Chat.ID, failureText); sendErr != nil {
			logrus.WithError(sendErr).Warn("Failed to send failure notice")
		}
		return fmt.Errorf("bot command %s: %w", command, err)
	}
	return nil
}

func (h *Handler) start(ctx context.Context, msg *tgmodels.Message) error {
	_, isAdmin, err := h.resolver.Resolve(ctx, identity.Identity{
		TelegramID: msg.From.ID,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
		Username:   msg.From.Username,
	})
	if err != nil {
		return err
	}
	if isAdmin {
		return h.messenger.SendWebAppButton(ctx, msg.Chat.ID, welcomeAdmin, "📊 Admin Dashboard", h.appURL+"?admin=true")
	}
	return h.messenger.SendWebAppButton(ctx, msg.Chat.ID, welcomeEmployee, "📝 Submit Report", h.appURL)
}

func (h *Handler) myReports(ctx context.Context, msg *tgmodels.Message) error {
	userID := msg.From.ID
	n, err := h.reports.CountReports(ctx, store.ReportFilter{UserID: &userID})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("You have submitted %d reports.", n)
	if n == 1 {
		text = "You have submitted 1 report."
	}
	return h.messenger.SendText(ctx, msg.Chat.ID, text)
}

// parseCommand extracts "/cmd" from "/cmd@BotName args".
func parseCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	cmd := fields[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), true
}

func metricLabel(command string) string {
	switch command {
	case "/start", "/help", "/myreports":
		return strings.TrimPrefix(command, "/")
	default:
		return "unknown"
	}
}
