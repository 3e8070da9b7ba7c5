package viewer

// State is a point-in-time summary of the viewer, safe to hand to other
// goroutines.
type State struct {
	ViewState

	Phase      string   `json:"phase"`
	Progress   float32  `json:"progress"`
	Steer      string   `json:"steer"`
	Steering   bool     `json:"steering"`
	Poses      []string `json:"poses"`
	Lights     []string `json:"lights"`
	Authored   bool     `json:"authoredLights"`
	Exposure   float32  `json:"exposure"`
	Asset      string   `json:"asset,omitempty"`
	Radius     float32  `json:"radius,omitempty"`
	Loading    bool     `json:"loading"`
	LoadStatus float32  `json:"loadProgress"`
	LoadError  string   `json:"loadError,omitempty"`
	Frames     uint64   `json:"frames"`
	Pending    int      `json:"pending"`
}

// State builds the summary from the live components.
func (v *Viewer) State() State {
	s := State{
		ViewState:  v.ViewState(),
		Phase:      v.poses.Phase().String(),
		Progress:   v.poses.Progress(),
		Steer:      v.wheels.State().String(),
		Steering:   v.wheels.Steering(),
		Poses:      v.poses.Registry().Names(),
		Lights:     v.lights.Rig().Names(),
		Authored:   v.lights.Authored(),
		Exposure:   v.lights.Exposure(),
		Loading:    v.loading,
		LoadStatus: v.loadProgress,
		Frames:     v.frames,
		Pending:    v.queue.Len(),
	}
	if v.asset != nil {
		s.Asset = v.asset.Path
		s.Radius = v.framing.Radius
	}
	if v.loadErr != nil {
		s.LoadError = v.loadErr.Error()
	}
	return s
}

func (v *Viewer) publish() {
	s := v.State()
	v.snapMu.Lock()
	v.snap = s
	v.snapMu.Unlock()
}

// Snapshot returns the state published by the last Tick. Safe for
// concurrent use.
func (v *Viewer) Snapshot() State {
	v.snapMu.RLock()
	defer v.snapMu.RUnlock()
	return v.snap
}
