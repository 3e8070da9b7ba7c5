package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"

	"github.com/Faultbox/carviewer/internal/assets"
	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/engine/vehicle"
	"github.com/Faultbox/carviewer/internal/viewer"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [model]",
	Short: "Display framing, lighting, wheel and material information for a model",
	Long: `Load the model exactly as the viewer would and report the derived camera
framing, the light rig, which wheel features are available and how every
material was adjusted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

var posesCmd = &cobra.Command{
	Use:   "poses [model]",
	Short: "List the camera poses resolved around a model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPoses,
}

// installModel loads path synchronously into a fresh viewer and runs one
// tick so derived state is in place.
func installModel(ctx context.Context, path string) (*viewer.Viewer, error) {
	asset, err := assets.NewLoader().LoadSync(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	v := viewer.New(viewer.Options{
		Settings: viewer.SettingsFromConfig(cfg),
		FOV:      cfg.Viewer.FOV,
		Width:    cfg.Viewer.Width,
		Height:   cfg.Viewer.Height,
	})
	v.SetContent(asset)
	v.Tick(0)
	return v, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := modelArg(args)
	v, err := installModel(cmd.Context(), path)
	if err != nil {
		return err
	}
	writeReport(cmd.OutOrStdout(), v)
	return nil
}

func writeReport(out io.Writer, v *viewer.Viewer) {
	asset := v.Asset()
	fr := v.Framing()
	cam := v.Camera()

	fmt.Fprintln(out, "Model Information")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "File: %s\n", asset.Path)
	fmt.Fprintf(out, "Nodes: %d\n\n", asset.Root.Count())

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", formatVec(asset.Box.Min))
	fmt.Fprintf(out, "  Max: %s\n", formatVec(asset.Box.Max))
	fmt.Fprintf(out, "  Center: %s\n", formatVec(fr.Center))
	fmt.Fprintf(out, "  Diagonal: %.4f\n\n", fr.Radius)

	fmt.Fprintln(out, "Camera:")
	fmt.Fprintf(out, "  Position: %s\n", formatVec(cam.Position()))
	fmt.Fprintf(out, "  Clip: %.4f .. %.4f\n", fr.Near, fr.Far)
	fmt.Fprintf(out, "  Orbit distance: %.4f .. %.4f\n\n", fr.MinDistance, fr.MaxDistance)

	fmt.Fprintln(out, "Lighting:")
	if asset.HasAuthoredLights() {
		fmt.Fprintln(out, "  Authored lights (rig disabled)")
	} else {
		fmt.Fprintf(out, "  Rig: %v\n", v.Lights().Rig().Names())
	}
	fmt.Fprintf(out, "  Exposure: %.2f\n\n", v.Lights().Exposure())

	w := v.Wheels()
	fmt.Fprintln(out, "Wheels:")
	for _, role := range vehicle.Roles {
		fmt.Fprintf(out, "  %-8s %v\n", role, w.Bound(role))
	}
	fmt.Fprintf(out, "  Roll: %v  Steer: %v\n\n", w.CanRoll(), w.CanSteer())

	fmt.Fprintln(out, "Materials:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tREFLECTION\tMETALNESS\tROUGHNESS\tEMISSIVE")
	seen := map[*scene.Material]bool{}
	asset.Root.TraverseMeshes(func(n *scene.Node) {
		for _, m := range n.Materials {
			if m == nil || seen[m] {
				continue
			}
			seen[m] = true
			env := "-"
			if m.EnvMap != nil {
				env = fmt.Sprintf("%s x%.2f", m.EnvMap.Name, m.EnvMapIntensity)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%.2f\t%.2f\n", m.Name, env, m.Metalness, m.Roughness, m.EmissiveIntensity)
		}
	})
	tw.Flush()
}

func runPoses(cmd *cobra.Command, args []string) error {
	v, err := installModel(cmd.Context(), modelArg(args))
	if err != nil {
		return err
	}

	reg := v.Poses().Registry()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPOSITION\tTARGET\tSECONDS\tFREE ORBIT")
	for _, name := range reg.SortedNames() {
		p, _ := reg.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%v\n",
			p.Name, formatVec(p.Position), formatVec(p.Target), p.Duration, !p.NonInteractive)
	}
	return tw.Flush()
}

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
