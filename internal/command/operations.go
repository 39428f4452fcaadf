package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/indicator"
	"github.com/smazurov/canister/internal/playback"
)

// OK is the response of operations that return no data.
const OK = "OK"

// Assets lists the files on disk.
type Assets interface {
	List() ([]string, error)
	Sounds() ([]string, error)
	SoundExists(name string) bool
}

// AudioControl is the device-global audio channel.
type AudioControl interface {
	Play(clip string) error
	Stop()
	Pause()
	Resume()
	SetVolume(level float64) error
	SetMuted(muted bool)
}

// Indicator drives the auxiliary indicator.
type Indicator interface {
	Set(on bool, source string) error
}

// Lifecycle ends the process after a stop or shutdown command.
type Lifecycle interface {
	RequestStop(powerOff bool)
}

// Deps are the collaborators the built-in operations act on.
type Deps struct {
	Controller *playback.Controller
	Assets     Assets
	Audio      AudioControl
	Indicator  Indicator
	Lifecycle  Lifecycle
	Pixels     int
	// MorseColor is the default color of morseCode.
	MorseColor animation.Color
}

// FillName is the animation name reported while a fill is active.
const FillName = "fill"

// RegisterBuiltins registers the operator command set.
func RegisterBuiltins(r *Registry, d Deps) {
	ctrl := d.Controller

	r.Register(Operation{
		Name:   "playAnimation",
		Params: []Param{{Name: "name", Type: TypeString}},
		Help:   "Play an animation by name",
		Handler: func(_ context.Context, args Args) (string, error) {
			if err := ctrl.Start(args.String(0)); err != nil {
				return "", err
			}
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "stopCurrentAnimation",
		Help: "Stop the current animation and fall back to the default",
		Handler: func(context.Context, Args) (string, error) {
			ctrl.Stop(true)
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "stop",
		Help: "Turn the strip off and exit",
		Handler: func(context.Context, Args) (string, error) {
			ctrl.Stop(false)
			d.Audio.Stop()
			d.Lifecycle.RequestStop(false)
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "shutdown",
		Help: "Turn the strip off, exit and power off the host",
		Handler: func(context.Context, Args) (string, error) {
			ctrl.Stop(false)
			d.Audio.Stop()
			d.Lifecycle.RequestStop(true)
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "getCurrentAnimation",
		Help: "Name of the animation currently playing",
		Handler: func(context.Context, Args) (string, error) {
			return ctrl.Name(), nil
		},
	})

	r.Register(Operation{
		Name: "getAnimationList",
		Help: "List the animations on disk",
		Handler: func(context.Context, Args) (string, error) {
			names, err := d.Assets.List()
			if err != nil {
				return "", err
			}
			return strings.Join(names, ", "), nil
		},
	})

	r.Register(Operation{
		Name: "getSoundList",
		Help: "List the sound files on disk",
		Handler: func(context.Context, Args) (string, error) {
			names, err := d.Assets.Sounds()
			if err != nil {
				return "", err
			}
			return strings.Join(names, ", "), nil
		},
	})

	r.Register(Operation{
		Name:   "playSound",
		Params: []Param{{Name: "name", Type: TypeString}},
		Help:   "Play a sound file without changing the animation",
		Handler: func(_ context.Context, args Args) (string, error) {
			name := args.String(0)
			if !d.Assets.SoundExists(name) {
				return "", &animation.Error{Code: animation.ErrCodeAssetNotFound, Name: name, Message: "sound file not found"}
			}
			if err := d.Audio.Play(name); err != nil {
				return "", err
			}
			return OK, nil
		},
	})

	r.Register(Operation{
		Name:   "mute",
		Params: []Param{{Name: "on", Type: TypeBool, Optional: true, Default: true}},
		Help:   "Mute or unmute the audio channel",
		Handler: func(_ context.Context, args Args) (string, error) {
			d.Audio.SetMuted(args.Bool(0))
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "pause",
		Help: "Pause the current sound",
		Handler: func(context.Context, Args) (string, error) {
			d.Audio.Pause()
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "resume",
		Help: "Resume the current sound",
		Handler: func(context.Context, Args) (string, error) {
			d.Audio.Resume()
			return OK, nil
		},
	})

	r.Register(Operation{
		Name:   "setVolume",
		Params: []Param{{Name: "percent", Type: TypeInt}},
		Help:   "Set the volume, 0 to 100",
		Handler: func(_ context.Context, args Args) (string, error) {
			percent := args.Int(0)
			if percent < 0 || percent > 100 {
				return "", argumentMismatch("setVolume", fmt.Sprintf("volume %d is outside 0-100", percent), nil)
			}
			if err := d.Audio.SetVolume(float64(percent) / 100); err != nil {
				return "", err
			}
			return OK, nil
		},
	})

	r.Register(Operation{
		Name:   "fill",
		Params: []Param{{Name: "color", Type: TypeColor}},
		Help:   "Fill the strip with one color",
		Handler: func(_ context.Context, args Args) (string, error) {
			if err := ctrl.Play(animation.Solid(FillName, args.Color(0), d.Pixels)); err != nil {
				return "", err
			}
			return OK, nil
		},
	})

	r.Register(Operation{
		Name:   "setIndicator",
		Params: []Param{{Name: "on", Type: TypeBool}},
		Help:   "Turn the auxiliary indicator on or off",
		Handler: func(_ context.Context, args Args) (string, error) {
			if err := d.Indicator.Set(args.Bool(0), indicator.SourceCommand); err != nil {
				return "", err
			}
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "morseCode",
		Params: []Param{
			{Name: "text", Type: TypeString},
			{Name: "color", Type: TypeColor, Optional: true, Default: d.MorseColor},
		},
		Help: "Scroll a message across the strip in morse code",
		Handler: func(_ context.Context, args Args) (string, error) {
			def, err := animation.Morse(args.String(0), args.Color(1), d.Pixels)
			if err != nil {
				return "", err
			}
			if err := ctrl.Play(def); err != nil {
				return "", err
			}
			return OK, nil
		},
	})

	r.Register(Operation{
		Name: "help",
		Help: "List the available commands",
		Handler: func(context.Context, Args) (string, error) {
			return "Commands : " + strings.Join(r.Names(), ", "), nil
		},
	})
}

// DefaultAliases are the shortcut commands of the stock prop.
var DefaultAliases = map[string]string{
	"meltdown":      "meltdown",
	"testAnimation": "test",
}

// RegisterAliases adds one zero-argument command per alias that plays the
// named animation. An alias may not shadow an existing command.
func RegisterAliases(r *Registry, ctrl *playback.Controller, aliases map[string]string) error {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target := aliases[name]
		if r.Has(name) {
			return fmt.Errorf("alias %q shadows an existing command", name)
		}
		if target == "" {
			return fmt.Errorf("alias %q has no animation", name)
		}
		r.Register(Operation{
			Name: name,
			Help: fmt.Sprintf("Play the %s animation", target),
			Handler: func(context.Context, Args) (string, error) {
				if err := ctrl.Start(target); err != nil {
					return "", err
				}
				return OK, nil
			},
		})
	}
	return nil
}
