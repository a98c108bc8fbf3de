package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"harbor-go/utils"
)

var startedAt = time.Now()

// ProcessStats is a point-in-time view of the process and host
type ProcessStats struct {
	Uptime        time.Duration `json:"uptime"`
	Goroutines    int           `json:"goroutines"`
	RSSBytes      uint64        `json:"rss_bytes"`
	ProcessCPU    float64       `json:"process_cpu_percent"`
	HostCPU       float64       `json:"host_cpu_percent"`
	HostMemUsed   float64       `json:"host_mem_used_percent"`
	HostMemTotal  uint64        `json:"host_mem_total_bytes"`
	GoVersion     string        `json:"go_version"`
	StatsComplete bool          `json:"stats_complete"`
}

// CollectProcessStats gathers runtime and host figures. Fields gopsutil can't
// read on this platform stay zero and StatsComplete is false.
func CollectProcessStats(ctx context.Context) ProcessStats {
	st := ProcessStats{
		Uptime:        time.Since(startedAt).Truncate(time.Second),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		StatsComplete: true,
	}

	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			st.RSSBytes = mi.RSS
		} else {
			st.StatsComplete = false
		}
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			st.ProcessCPU = pct
		} else {
			st.StatsComplete = false
		}
	} else {
		st.StatsComplete = false
	}

	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		st.HostCPU = pcts[0]
	} else {
		st.StatsComplete = false
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		st.HostMemUsed = vm.UsedPercent
		st.HostMemTotal = vm.Total
	} else {
		st.StatsComplete = false
	}
	return st
}

// RegisterPingCommand config
func RegisterPingCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Check bot latency",
	}
}

// RegisterBotInfoCommand config
func RegisterBotInfoCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "botinfo",
		Description: "Show bot uptime and resource usage",
	}
}

// HandlePingCommand handles /ping
func HandlePingCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	start := time.Now()
	latency := "n/a"
	if gw, ok := s.(*discordgo.Session); ok {
		latency = fmt.Sprintf("%dms", gw.HeartbeatLatency().Milliseconds())
	}

	embed := utils.CreateBrandedEmbed("🏓 Pong!", "", utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Gateway", Value: latency, Inline: true},
		{Name: "Handler", Value: fmt.Sprintf("%dms", time.Since(start).Milliseconds()), Inline: true},
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

// HandleBotInfoCommand handles /botinfo
func HandleBotInfoCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	st := CollectProcessStats(ctx)

	guilds := 0
	if gw, ok := s.(*discordgo.Session); ok && gw.State != nil {
		gw.State.RLock()
		guilds = len(gw.State.Guilds)
		gw.State.RUnlock()
	}

	embed := utils.CreateBrandedEmbed("ℹ️ "+utils.BotName, "", utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Uptime", Value: utils.FormatDuration(st.Uptime), Inline: true},
		{Name: "Servers", Value: utils.FormatNumber(int64(guilds)), Inline: true},
		{Name: "Goroutines", Value: utils.FormatNumber(int64(st.Goroutines)), Inline: true},
		{Name: "Memory", Value: fmt.Sprintf("%.1f MiB", float64(st.RSSBytes)/(1<<20)), Inline: true},
		{Name: "Process CPU", Value: fmt.Sprintf("%.1f%%", st.ProcessCPU), Inline: true},
		{Name: "Host CPU", Value: fmt.Sprintf("%.1f%%", st.HostCPU), Inline: true},
		{Name: "Active Sessions", Value: utils.FormatNumber(int64(utils.Sessions.Count())), Inline: true},
		{Name: "Open Tickets", Value: utils.FormatNumber(int64(utils.Tickets.Count())), Inline: true},
		{Name: "Runtime", Value: st.GoVersion, Inline: true},
	}
	return utils.EditOriginalInteraction(s, i, embed, nil)
}
