package main

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"harbor-go/utils"
	"harbor-go/utils/discordtest"
)

func newTestRouter() *Router {
	r := NewRouter(nil)
	r.limiter = utils.NewUserRateLimiter(1, 2)
	r.metrics = utils.NewMetricsRecorder()
	return r
}

func TestRouterDispatch(t *testing.T) {
	r := newTestRouter()
	var got []string
	r.Command("ping", func(_ utils.Discord, i *discordgo.InteractionCreate) error {
		got = append(got, "command:"+i.ApplicationCommandData().Name)
		return nil
	})
	r.Component("ticket", func(_ utils.Discord, i *discordgo.InteractionCreate) error {
		got = append(got, "component:"+i.MessageComponentData().CustomID)
		return errors.New("handler failed")
	})
	r.Component("builder", func(_ utils.Discord, i *discordgo.InteractionCreate) error {
		got = append(got, "modal:"+i.ModalSubmitData().CustomID)
		return nil
	})

	dg := &discordtest.MockDiscord{}
	r.Dispatch(dg, discordtest.SlashCommand("ping", "g", "1"))
	r.Dispatch(dg, discordtest.Component("ticket:close", "g", "2"))
	r.Dispatch(dg, discordtest.Modal("builder:modal:abc:title", "g", "3", map[string]string{"title": "x"}))
	r.Dispatch(dg, discordtest.SlashCommand("unknown", "g", "4"))
	r.Dispatch(dg, discordtest.Component("nothing:here", "g", "4"))

	assert.Equal(t, []string{"command:ping", "component:ticket:close", "modal:builder:modal:abc:title"}, got)
	snap := r.metrics.Snapshot()
	assert.Equal(t, int64(3), snap.Handled)
	assert.Equal(t, int64(1), snap.Failed)
	dg.AssertNotCalled(t, "InteractionRespond", mock.Anything, mock.Anything)
}

func TestRouterRateLimit(t *testing.T) {
	r := newTestRouter()
	calls := 0
	r.Command("ping", func(utils.Discord, *discordgo.InteractionCreate) error {
		calls++
		return nil
	})

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	for n := 0; n < 3; n++ {
		r.Dispatch(dg, discordtest.SlashCommand("ping", "g", "1"))
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(1), r.metrics.Snapshot().RateLimited)
	resp := dg.Responses()
	require.Len(t, resp, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp[0].Data.Flags)
	assert.Contains(t, resp[0].Data.Content, utils.SlowDownMessage)
}

func TestRouterRecoversPanics(t *testing.T) {
	r := newTestRouter()
	r.Command("boom", func(utils.Discord, *discordgo.InteractionCreate) error {
		panic("nil map")
	})

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(errors.New("already acknowledged")).Once()
	dg.On("FollowupMessageCreate", mock.Anything, true, mock.Anything).Return(&discordgo.Message{}, nil).Once()

	assert.NotPanics(t, func() {
		r.Dispatch(dg, discordtest.SlashCommand("boom", "g", "1"))
	})
	snap := r.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Panics)
	assert.Equal(t, int64(1), snap.Failed)
	dg.AssertExpectations(t)
}
