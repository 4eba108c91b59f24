package layout

import (
	"context"
	"time"

	"github.com/neatgraph/neatgraph/pkg/diagram"
)

// DefaultFrameRate is the animation frame rate used when ApplyOptions does
// not set one.
const DefaultFrameRate = 30

// ApplyOptions controls how a placement is written onto a graph.
type ApplyOptions struct {
	// Animate eases node positions from their current location to the
	// computed one over this duration. Zero applies positions immediately.
	Animate time.Duration

	// FrameRate is the number of animation steps per second. Defaults to
	// DefaultFrameRate.
	FrameRate int

	// Fit translates the content so its bounding box starts at
	// (FitPadding, FitPadding) once all positions have been applied.
	Fit        bool
	FitPadding float64
}

// Apply writes a placement onto the graph. Placement entries with a nil cell
// reference are skipped, so results computed against a graph that has since
// lost cells apply cleanly. Sizes and edge routes are always set directly;
// only node positions are animated.
//
// When the context ends mid-animation the remaining tween is abandoned, the
// final positions are applied, and the context error is returned.
func Apply(ctx context.Context, g *diagram.Graph, p *Placement, opts ApplyOptions) error {
	if p == nil {
		return nil
	}

	for _, pn := range p.Nodes {
		if pn.Node != nil {
			pn.Node.Resize(pn.Width, pn.Height)
		}
	}

	var err error
	if opts.Animate > 0 {
		err = animatePositions(ctx, p, opts)
	} else {
		setFinalPositions(p)
	}

	for _, re := range p.Edges {
		if re.Edge != nil {
			re.Edge.SetVertices(re.Points)
		}
	}
	if opts.Fit {
		g.FitContent(opts.FitPadding)
	}
	return err
}

func setFinalPositions(p *Placement) {
	for _, pn := range p.Nodes {
		if pn.Node != nil {
			pn.Node.SetPosition(pn.X, pn.Y)
		}
	}
}

type tween struct {
	node         *diagram.Node
	fromX, fromY float64
	toX, toY     float64
}

func animatePositions(ctx context.Context, p *Placement, opts ApplyOptions) error {
	tweens := make([]tween, 0, len(p.Nodes))
	for _, pn := range p.Nodes {
		if pn.Node == nil {
			continue
		}
		tweens = append(tweens, tween{
			node:  pn.Node,
			fromX: pn.Node.X,
			fromY: pn.Node.Y,
			toX:   pn.X,
			toY:   pn.Y,
		})
	}
	if len(tweens) == 0 {
		return nil
	}

	fps := opts.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	interval := time.Second / time.Duration(fps)
	frames := int(opts.Animate / interval)
	if frames < 1 {
		frames = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for frame := 1; frame <= frames; frame++ {
		select {
		case <-ctx.Done():
			setFinalPositions(p)
			return ctx.Err()
		case <-ticker.C:
			t := easeInOutCubic(float64(frame) / float64(frames))
			for _, tw := range tweens {
				tw.node.SetPosition(
					tw.fromX+(tw.toX-tw.fromX)*t,
					tw.fromY+(tw.toY-tw.fromY)*t,
				)
			}
		}
	}
	return nil
}

// easeInOutCubic accelerates through the first half of the animation and
// decelerates through the second. t runs from 0 to 1.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	d := -2*t + 2
	return 1 - d*d*d/2
}
