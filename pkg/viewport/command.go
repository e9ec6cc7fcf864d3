package viewport

import (
	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/graph"
)

// Camera command names, as accepted over the wire.
const (
	OpFitContent             = "fitContent"
	OpFitExtent              = "fitExtent"
	OpCenterOnExtent         = "centerOnExtent"
	OpScaleZoom              = "scaleZoom"
	OpResetZoom              = "resetZoom"
	OpCenterOnPositionedNode = "centerOnPositionedNode"
)

// Command is a serializable camera command. Only the fields used by Op are
// read.
type Command struct {
	Op      string        `json:"op" validate:"required"`
	Padding float64       `json:"padding,omitempty"`
	Extent  *graph.Extent `json:"extent,omitempty"`
	Animate *bool         `json:"animate,omitempty"`
	Zoom    *float64      `json:"zoom,omitempty"`
	Factor  float64       `json:"factor,omitempty"`
	NodeID  string        `json:"node_id,omitempty"`
}

// Apply runs cmd against the controller. It reports whether the camera
// target changed; malformed commands return an INVALID_INPUT error.
func (c *Controller) Apply(cmd Command) (bool, error) {
	var center []CenterOption
	if cmd.Zoom != nil {
		center = append(center, WithZoom(*cmd.Zoom))
	}

	switch cmd.Op {
	case OpFitContent:
		return c.FitContent(cmd.Padding), nil
	case OpFitExtent:
		if cmd.Extent == nil {
			return false, errors.New(errors.ErrCodeInvalidInput, "%s requires an extent", cmd.Op)
		}
		animate := cmd.Animate == nil || *cmd.Animate
		return c.FitExtent(*cmd.Extent, animate), nil
	case OpCenterOnExtent:
		if cmd.Extent == nil {
			return false, errors.New(errors.ErrCodeInvalidInput, "%s requires an extent", cmd.Op)
		}
		return c.CenterOnExtent(*cmd.Extent, center...), nil
	case OpScaleZoom:
		factor := cmd.Factor
		if factor == 0 {
			factor = 1
		}
		return c.ScaleZoom(factor), nil
	case OpResetZoom:
		return c.ResetZoom(), nil
	case OpCenterOnPositionedNode:
		if cmd.NodeID == "" {
			return false, errors.New(errors.ErrCodeInvalidInput, "%s requires a node_id", cmd.Op)
		}
		return c.CenterOnPositionedNode(cmd.NodeID, center...), nil
	default:
		return false, errors.New(errors.ErrCodeInvalidInput, "unknown camera command %q", cmd.Op)
	}
}
