package asset

import (
	"fmt"
	"time"
)

// DefaultFPS is the frame rate the model's animations are authored at.
const DefaultFPS = 30.0

// TimeAtFrame returns the time at which frame starts.
func TimeAtFrame(frame int, fps float64) time.Duration {
	return time.Duration(float64(frame) / fps * float64(time.Second))
}

// TimeRange returns the offset and length of the frames [start, end).
func TimeRange(start, end int, fps float64) (offset, duration time.Duration) {
	offset = TimeAtFrame(start, fps)
	return offset, TimeAtFrame(end, fps) - offset
}

// Animation is an animation embedded in a model node.
type Animation struct {
	Key        string  `json:"key"`
	FrameCount int     `json:"frameCount"`
	FPS        float64 `json:"fps"`
}

// Duration is the full length of the animation.
func (a Animation) Duration() time.Duration {
	return TimeAtFrame(a.FrameCount, a.FPS)
}

// Clip is a playable slice of an animation.
type Clip struct {
	Source        string
	Offset        time.Duration
	Duration      time.Duration
	RepeatForever bool
	FadeIn        time.Duration
	FadeOut       time.Duration
}

// SubClip slices frames [start, end) out of a.
func SubClip(a Animation, start, end int) (Clip, error) {
	fps := a.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	if start < 0 || end <= start || end > a.FrameCount {
		return Clip{}, fmt.Errorf("frames %d-%d outside animation %q of %d frames", start, end, a.Key, a.FrameCount)
	}
	offset, duration := TimeRange(start, end, fps)
	return Clip{Source: a.Key, Offset: offset, Duration: duration}, nil
}

// Player plays one clip.
type Player struct {
	Clip    Clip
	Playing bool
}

func (p *Player) Play() { p.Playing = true }

func (p *Player) Stop() { p.Playing = false }
