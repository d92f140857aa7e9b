package bot

import (
	"context"
	"errors"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamreports/identity"
	"teamreports/models"
	"teamreports/store"
	"teamreports/store/storetest"
)

type sent struct {
	chatID int64
	text   string
	button string
	url    string
}

type fakeMessenger struct {
	messages []sent
	err      error
}

func (f *fakeMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, sent{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) SendWebAppButton(ctx context.Context, chatID int64, text, buttonText, url string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, sent{chatID: chatID, text: text, button: buttonText, url: url})
	return nil
}

type brokenResolver struct{}

func (brokenResolver) Resolve(ctx context.Context, id identity.Identity) (*models.User, bool, error) {
	return nil, false, errors.New("db down")
}

func command(from int64, text string) *tgmodels.Update {
	return &tgmodels.Update{
		ID: 1,
		Message: &tgmodels.Message{
			ID:   10,
			Text: text,
			Chat: tgmodels.Chat{ID: from},
			From: &tgmodels.User{ID: from, FirstName: "Ann", Username: "ann"},
		},
	}
}

func TestStartProvisionsEmployee(t *testing.T) {
	ctx := context.Background()
	s := store.New(storetest.OpenDB(t))
	m := &fakeMessenger{}
	h := NewHandler(m, identity.NewResolver(s, nil), s, "https://app.example")

	require.NoError(t, h.HandleUpdate(ctx, command(42, "/start")))

	require.Len(t, m.messages, 1)
	assert.Equal(t, int64(42), m.messages[0].chatID)
	assert.Equal(t, "📝 Submit Report", m.messages[0].button)
	assert.Equal(t, "https://app.example", m.messages[0].url)

	user, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.FirstName)
	assert.Equal(t, models.RoleEmployee, user.Role)
}

func TestStartAdminGetsDashboard(t *testing.T) {
	s := store.New(storetest.OpenDB(t))
	m := &fakeMessenger{}
	h := NewHandler(m, identity.NewResolver(s, []int64{7}), s, "https://app.example")

	require.NoError(t, h.HandleUpdate(context.Background(), command(7, "/start@TeamReportsBot")))

	require.Len(t, m.messages, 1)
	assert.Equal(t, "📊 Admin Dashboard", m.messages[0].button)
	assert.Equal(t, "https://app.example?admin=true", m.messages[0].url)
}

func TestMyReportsCountsSubmissions(t *testing.T) {
	ctx := context.Background()
	s := store.New(storetest.OpenDB(t))
	require.NoError(t, s.CreateUser(ctx, &models.User{TelegramID: 42, FirstName: "Ann"}))
	team := &models.Team{Name: "Ops", CreatedBy: 42}
	require.NoError(t, s.CreateTeam(ctx, team))
	require.NoError(t, s.CreateReport(ctx, &models.Report{UserID: 42, TeamID: team.ID, Title: "a"}))
	require.NoError(t, s.CreateReport(ctx, &models.Report{UserID: 42, TeamID: team.ID, Title: "b"}))

	m := &fakeMessenger{}
	h := NewHandler(m, identity.NewResolver(s, nil), s, "")
	require.NoError(t, h.HandleUpdate(ctx, command(42, "/myreports")))

	require.Len(t, m.messages, 1)
	assert.Equal(t, "You have submitted 2 reports.", m.messages[0].text)
}

func TestHelpAndUnknownCommands(t *testing.T) {
	s := store.New(storetest.OpenDB(t))
	m := &fakeMessenger{}
	h := NewHandler(m, identity.NewResolver(s, nil), s, "")

	require.NoError(t, h.HandleUpdate(context.Background(), command(1, "/help")))
	require.NoError(t, h.HandleUpdate(context.Background(), command(1, "/dance now")))

	require.Len(t, m.messages, 2)
	assert.Equal(t, helpText, m.messages[0].text)
	assert.Equal(t, unknownText, m.messages[1].text)
}

func TestPlainMessagesAreIgnored(t *testing.T) {
	s := store.New(storetest.OpenDB(t))
	m := &fakeMessenger{}
	h := NewHandler(m, identity.NewResolver(s, nil), s, "")

	require.NoError(t, h.HandleUpdate(context.Background(), command(1, "hello there")))
	require.NoError(t, h.HandleUpdate(context.Background(), &tgmodels.Update{ID: 2}))
	assert.Empty(t, m.messages)
}

func TestFailureSendsApology(t *testing.T) {
	s := store.New(storetest.OpenDB(t))
	m := &fakeMessenger{}
	h := NewHandler(m, brokenResolver{}, s, "")

	err := h.HandleUpdate(context.Background(), command(1, "/start"))
	assert.ErrorContains(t, err, "db down")
	require.Len(t, m.messages, 1)
	assert.Equal(t, failureText, m.messages[0].text)
}

func TestParseCommand(t *testing.T) {
	cmd, ok := parseCommand("/Start@Bot payload")
	assert.True(t, ok)
	assert.Equal(t, "/start", cmd)

	_, ok = parseCommand("   ")
	assert.False(t, ok)
}
