package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// AnimationFrame represents a single frame in an animation sequence
type AnimationFrame struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Delay      time.Duration
}

// FrameRenderer draws a frame, usually by editing the interaction response
type FrameRenderer func(ctx context.Context, frame AnimationFrame) error

// AnimationManager runs frame sequences and lets a newer sequence with the
// same ID cancel an older one
type AnimationManager struct {
	sequences map[string]*animationRun
	mutex     sync.Mutex
}

type animationRun struct {
	cancel context.CancelFunc
}

// Global animation manager
var Animations = NewAnimationManager()

func NewAnimationManager() *AnimationManager {
	return &AnimationManager{sequences: make(map[string]*animationRun)}
}

// Play renders frames in order, waiting each frame's Delay first. It returns
// early with ctx.Err() when cancelled. A failed frame is skipped and its
// error joined into the result.
func (am *AnimationManager) Play(ctx context.Context, id string, frames []AnimationFrame, render FrameRenderer) error {
	ctx, cancel := context.WithCancel(ctx)
	run := &animationRun{cancel: cancel}
	am.mutex.Lock()
	if existing, ok := am.sequences[id]; ok {
		existing.cancel()
	}
	am.sequences[id] = run
	am.mutex.Unlock()

	defer func() {
		cancel()
		am.mutex.Lock()
		// a newer sequence may have replaced ours
		if am.sequences[id] == run {
			delete(am.sequences, id)
		}
		am.mutex.Unlock()
	}()

	var errs []error
	for i, frame := range frames {
		if frame.Delay > 0 {
			timer := time.NewTimer(frame.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := render(ctx, frame); err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Cancel stops a running sequence
func (am *AnimationManager) Cancel(id string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if run, ok := am.sequences[id]; ok {
		run.cancel()
		delete(am.sequences, id)
	}
}

// IsRunning checks if a sequence is currently registered
func (am *AnimationManager) IsRunning(id string) bool {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	_, ok := am.sequences[id]
	return ok
}

// EditResponseRenderer renders frames by editing the original interaction response
func EditResponseRenderer(s Discord, i *discordgo.Interaction) FrameRenderer {
	return func(ctx context.Context, frame AnimationFrame) error {
		edit := &discordgo.WebhookEdit{
			Embeds: &[]*discordgo.MessageEmbed{frame.Embed},
		}
		if frame.Components != nil {
			edit.Components = &frame.Components
		}
		_, err := s.InteractionResponseEdit(i, edit, discordgo.WithContext(ctx))
		return err
	}
}
