package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	"github.com/chriskillpack/w4on2"
	"github.com/chriskillpack/w4on2/internal/reverb"
	"github.com/chriskillpack/w4on2/internal/synth"
)

var (
	white  = color.New(color.FgWhite).SprintfFunc()
	cyan   = color.New(color.FgCyan).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	blue   = color.New(color.FgHiBlue).SprintFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

const (
	audioBufferSize = 756 / 2
	uiLineCount     = 7
	uiRedrawTicks   = 6 // redraw roughly every 1/10s at 60 ticks/sec
)

// playbackState is a snapshot of AudioPlayer used to decide whether the UI
// needs to be redrawn and what to draw.
type playbackState struct {
	Ticks        uint64
	ActiveTracks uint8
	ActiveKeys   [w4on2.ChannelCount]uint8
	Playing      bool
}

// AudioPlayer drives a w4on2.Player tick by tick, renders its output
// through a synth.Synth and a reverb.Reverber, and streams it to the
// default audio device via PortAudio.
type AudioPlayer struct {
	player *w4on2.Player
	rt     *w4on2.Runtime
	synth  *synth.Synth
	reverb reverb.Reverber

	sampleRate     int
	samplesPerTick int
	tickBuf        []int16
	drain          []int16
	stream         *portaudio.Stream

	// UI state
	uiWriter        io.Writer
	selectedChannel int
	gate            *channelGate
	playing         bool
	finished        bool
	ticks           uint64
	lastActiveKeys  [w4on2.ChannelCount]uint8
	lastActive      uint8
	lastState       playbackState

	// Lifecycle management
	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// channelGate tracks which channels are muted or soloed. It is shared
// between the Runtime's ToneFunc (which silences gated channels at the
// source) and the AudioPlayer UI (which reports and toggles gate state).
type channelGate struct {
	mute uint8
	solo int
}

func newChannelGate() *channelGate {
	return &channelGate{solo: -1}
}

// isMuted reports whether channel ch should be silenced. While a channel
// is soloed, every other channel is silenced and the soloed one plays even
// if its mute bit is set; otherwise ch is silenced if it is muted directly.
func (g *channelGate) isMuted(ch int) bool {
	if g.solo >= 0 {
		return ch != g.solo
	}
	return g.mute&(1<<uint(ch)) != 0
}

// NewAudioPlayer creates an AudioPlayer ready to run, positioned at the
// start of the score already loaded into player/rt. gate must be the same
// channelGate the Runtime's ToneFunc consults.
func NewAudioPlayer(player *w4on2.Player, rt *w4on2.Runtime, sy *synth.Synth, rv reverb.Reverber, sampleRate int, noUI bool, gate *channelGate) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())
	samplesPerTick := (sampleRate / 60) * 2

	return &AudioPlayer{
		player:         player,
		rt:             rt,
		synth:          sy,
		reverb:         rv,
		sampleRate:     sampleRate,
		samplesPerTick: samplesPerTick,
		tickBuf:        make([]int16, samplesPerTick),
		drain:          make([]int16, 256),
		uiWriter:       uiw,
		gate:           gate,
		playing:        true,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts audio playback and the UI render loop, blocking until either
// the score finishes, the user quits, or a signal requests shutdown.
func (ap *AudioPlayer) Run() error {
	if err := ap.Initialize(); err != nil {
		return err
	}

	if err := ap.setupAudioStream(); err != nil {
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Fprint(ap.uiWriter, hideCursor)

	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}

		state := ap.state()
		if shouldUpdateUI(ap.lastState, state) {
			ap.renderUI(state)
			ap.lastState = state
		}

		if ap.finished {
			ap.Stop()
		}
	}

exit:
	fmt.Fprint(ap.uiWriter, showCursor)

	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

// Initialize brings up the PortAudio library.
func (ap *AudioPlayer) Initialize() error {
	return portaudio.Initialize()
}

func (ap *AudioPlayer) setupAudioStream() error {
	stream, err := portaudio.OpenDefaultStream(
		0, 2,
		float64(ap.sampleRate),
		audioBufferSize,
		ap.streamCallback,
	)
	if err != nil {
		return err
	}
	ap.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	return nil
}

// streamCallback is invoked by PortAudio on its own thread to fill out
// with interleaved stereo samples. It renders whole ticks of audio through
// the synth and reverb until out is full.
func (ap *AudioPlayer) streamCallback(out []int16) {
	filled := 0
	for filled < len(out) {
		n := ap.reverb.GetAudio(out[filled:])
		filled += n
		if filled == len(out) {
			return
		}
		if ap.finished {
			clear(out[filled:])
			return
		}
		ap.renderTick()
	}
}

// renderTick advances playback by one tick (if playing) and pushes the
// resulting audio into the reverb's input buffer.
func (ap *AudioPlayer) renderTick() {
	if ap.playing {
		active := ap.player.Tick(ap.rt)
		ap.rt.Tick()
		ap.lastActive = active
		for ch := range ap.rt.Channels {
			ap.lastActiveKeys[ch] = ap.rt.Channels[ch].ActiveKeyCount
		}
		ap.ticks++
		ap.synth.Render(ap.tickBuf, ap.samplesPerTick/2)
		if active == 0 {
			ap.finished = true
		}
	} else {
		clear(ap.tickBuf)
	}

	pushed := 0
	for pushed < len(ap.tickBuf) {
		n := ap.reverb.InputSamples(ap.tickBuf[pushed:])
		pushed += n
		if pushed < len(ap.tickBuf) {
			ap.reverb.GetAudio(ap.drain)
		}
	}
}

func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		for {
			select {
			case <-ap.ctx.Done():
				return
			case sig := <-sigch:
				if sig == syscall.SIGINT {
					ap.Stop()
					return
				}
			}
		}
	}()
}

func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}
			ap.handleKeyPress(key)
			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Left:
		ap.selectedChannel = max(ap.selectedChannel-1, 0)

	case keys.Right:
		ap.selectedChannel = min(ap.selectedChannel+1, w4on2.ChannelCount-1)

	case keys.Space:
		ap.playing = !ap.playing

	case keys.RuneKey:
		if len(key.Runes) == 0 {
			return
		}
		switch key.Runes[0] {
		case 'q':
			ap.gate.mute ^= 1 << uint(ap.selectedChannel)

		case 's':
			if ap.gate.solo != ap.selectedChannel {
				ap.gate.solo = ap.selectedChannel
			} else {
				ap.gate.solo = -1
			}
		}
	}
}

// Stop performs clean shutdown, idempotently.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}

		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}

		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

func (ap *AudioPlayer) state() playbackState {
	return playbackState{
		Ticks:        ap.ticks,
		ActiveTracks: ap.lastActive,
		ActiveKeys:   ap.lastActiveKeys,
		Playing:      ap.playing,
	}
}

func shouldUpdateUI(last, current playbackState) bool {
	if last.Ticks == 0 && current.Ticks == 0 {
		return true
	}
	return current.Ticks/uiRedrawTicks != last.Ticks/uiRedrawTicks || current.Playing != last.Playing
}

// renderUI draws the header and per-channel status, then moves the
// cursor back to the top so the next redraw overwrites it in place.
func (ap *AudioPlayer) renderUI(state playbackState) {
	ap.renderHeader(state)
	ap.renderChannels(state)
	fmt.Fprintf(ap.uiWriter, escape+"%dF", uiLineCount)
}

func (ap *AudioPlayer) renderHeader(state playbackState) {
	status := green("playing")
	if !state.Playing {
		status = yellow("paused")
	}
	fmt.Fprintf(ap.uiWriter, "%s %8d  %s %s  %s %d/%d\n",
		blue("tick"), state.Ticks, blue("state"), status,
		blue("tracks"), state.ActiveTracks, w4on2.TrackCount)
}

func (ap *AudioPlayer) renderChannels(state playbackState) {
	fmt.Fprintln(ap.uiWriter)
	for ch := 0; ch < w4on2.ChannelCount; ch++ {
		label := fmt.Sprintf("ch%d", ch)
		if ch == ap.selectedChannel {
			label = green("%s", label)
		} else {
			label = white("%s", label)
		}

		marker := " "
		if ap.gate.isMuted(ch) {
			marker = red("M")
		} else if ap.gate.solo == ch {
			marker = yellow("S")
		}

		activeKeys := state.ActiveKeys[ch]
		bar := ""
		for i := uint8(0); i < activeKeys; i++ {
			bar += "#"
		}
		fmt.Fprintf(ap.uiWriter, "%s %s %s %-8s\n", label, marker, cyan("%d", activeKeys), bar)
	}
	fmt.Fprintln(ap.uiWriter)
}
