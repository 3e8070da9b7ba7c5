package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/carviewer/internal/engine/vehicle"
	"github.com/Faultbox/carviewer/internal/viewer"
)

// Command types accepted on the control socket.
const (
	TypeSelectView = "selectView"
	TypeSteer      = "steer"
	TypeExposure   = "exposure"
	TypeOrbit      = "orbit"
	TypeZoom       = "zoom"
	TypeLoad       = "load"
	TypeState      = "state"
)

var (
	// ErrBadCommand is returned for messages that cannot be decoded or lack
	// a required field.
	ErrBadCommand = errors.New("bad command")
	// ErrUnknownCommand is returned for an unrecognised command type.
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is one client message.
type Command struct {
	ID        string   `json:"id,omitempty"`
	Type      string   `json:"type"`
	Name      string   `json:"name,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Value     *float32 `json:"value,omitempty"`
	DX        float32  `json:"dx,omitempty"`
	DY        float32  `json:"dy,omitempty"`
	Path      string   `json:"path,omitempty"`
}

// Reply answers exactly one Command.
type Reply struct {
	ID    string            `json:"id,omitempty"`
	Type  string            `json:"type"`
	OK    bool              `json:"ok"`
	Error string            `json:"error,omitempty"`
	Steer string            `json:"steer,omitempty"`
	View  *viewer.ViewState `json:"view,omitempty"`
}

// action runs on the frame goroutine.
type action func(ctx context.Context, t Target, r *Reply) error

// decode parses data and returns the action it asks for. Validation that
// does not need viewer state happens here, off the frame goroutine.
func decode(data []byte) (Command, action, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}

	switch cmd.Type {
	case TypeSelectView:
		if cmd.Name == "" {
			return cmd, nil, fmt.Errorf("%w: selectView needs a name", ErrBadCommand)
		}
		return cmd, func(_ context.Context, t Target, _ *Reply) error {
			return t.RequestPose(cmd.Name)
		}, nil

	case TypeSteer:
		dir, err := vehicle.ParseSteer(cmd.Direction)
		if err != nil {
			return cmd, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
		}
		return cmd, func(_ context.Context, t Target, r *Reply) error {
			r.Steer = t.SetSteer(dir).String()
			return nil
		}, nil

	case TypeExposure:
		if cmd.Value == nil {
			return cmd, nil, fmt.Errorf("%w: exposure needs a value", ErrBadCommand)
		}
		v := *cmd.Value
		if v < 0 || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return cmd, nil, fmt.Errorf("%w: exposure %v out of range", ErrBadCommand, v)
		}
		return cmd, func(_ context.Context, t Target, _ *Reply) error {
			t.SetExposure(v)
			return nil
		}, nil

	case TypeOrbit:
		return cmd, func(_ context.Context, t Target, _ *Reply) error {
			t.Orbit(cmd.DX, cmd.DY)
			return nil
		}, nil

	case TypeZoom:
		if cmd.Value == nil {
			return cmd, nil, fmt.Errorf("%w: zoom needs a value", ErrBadCommand)
		}
		delta := *cmd.Value
		return cmd, func(_ context.Context, t Target, _ *Reply) error {
			t.Zoom(delta)
			return nil
		}, nil

	case TypeLoad:
		if cmd.Path == "" {
			return cmd, nil, fmt.Errorf("%w: load needs a path", ErrBadCommand)
		}
		return cmd, func(ctx context.Context, t Target, _ *Reply) error {
			t.Load(ctx, cmd.Path)
			return nil
		}, nil

	case TypeState:
		return cmd, func(context.Context, Target, *Reply) error { return nil }, nil

	default:
		return cmd, nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}
