package chess_arm

import (
	"context"

	"github.com/pkg/errors"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
)

// PoseTransformer re-expresses a pose in a different named reference frame.
// Implementations typically wrap a live transform service.
type PoseTransformer interface {
	TransformPose(ctx context.Context, pose *referenceframe.PoseInFrame, dstFrame string) (*referenceframe.PoseInFrame, error)
}

// StaticTransformer resolves frames through a fixed table of frame->base
// transforms, for rigs where the board is calibrated once and does not move.
type StaticTransformer struct {
	baseFrame string
	// pose of each frame's origin expressed in baseFrame
	frames map[string]spatialmath.Pose
}

func NewStaticTransformer(baseFrame string) *StaticTransformer {
	return &StaticTransformer{
		baseFrame: baseFrame,
		frames:    map[string]spatialmath.Pose{baseFrame: spatialmath.NewZeroPose()},
	}
}

// SetFrame registers (or updates) a frame's pose relative to the base frame.
func (t *StaticTransformer) SetFrame(name string, pose spatialmath.Pose) {
	t.frames[name] = pose
}

// TransformPose re-expresses pose in dstFrame by composing through the base
// frame. Unknown frames are an error.
func (t *StaticTransformer) TransformPose(ctx context.Context, pose *referenceframe.PoseInFrame, dstFrame string) (*referenceframe.PoseInFrame, error) {
	if pose.Parent() == dstFrame {
		return pose, nil
	}
	src, ok := t.frames[pose.Parent()]
	if !ok {
		return nil, errors.Errorf("unknown source frame %q", pose.Parent())
	}
	dst, ok := t.frames[dstFrame]
	if !ok {
		return nil, errors.Errorf("unknown destination frame %q", dstFrame)
	}
	inBase := spatialmath.Compose(src, pose.Pose())
	inDst := spatialmath.Compose(spatialmath.PoseInverse(dst), inBase)
	return referenceframe.NewPoseInFrame(dstFrame, inDst), nil
}
