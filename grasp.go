package chess_arm

import (
	"fmt"
	"iter"
	"math"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
)

// DirectOverheadGrasp identifies the straight-down grasp that every sequence
// leads with.
const DirectOverheadGrasp = "direct_overhead"

// Wrist orientation offsets tried after the direct overhead grasp, in
// radians. Pitch offsets tilt the wrist away from vertical; yaws spin it
// about the approach axis. Pitch is the outer loop so the least-tilted
// candidates come first.
var (
	graspPitchOffsets = []float64{0.05, 0.10, 0.20, 0.40}
	graspYaws         = []float64{-1.57, -0.78, 0.0, 0.78, 1.57}
)

const overheadPitch = 1.57

// GripperPosture is a gripper opening expressed as a two-element joint-state
// record. The planner reads the positions as an opening width in meters, not
// a joint angle, and wants it duplicated across both entries.
type GripperPosture struct {
	JointNames []string
	Positions  []float64
}

// GripperTranslation is a straight-line end-effector motion immediately
// before or after contact.
type GripperTranslation struct {
	Direction       r3.Vector
	Frame           string
	MinDistance     float64
	DesiredDistance float64
}

// GraspCandidate is one fully-specified hand pose/posture proposal for
// lifting an object.
type GraspCandidate struct {
	Name            string
	Pose            *referenceframe.PoseInFrame
	PreGraspPosture GripperPosture
	GraspPosture    GripperPosture
	Approach        GripperTranslation
	Retreat         GripperTranslation
	Quality         float64
}

// PlaceCandidate is one fully-specified proposal for setting an object down.
// Place candidates are ordered but not scored.
type PlaceCandidate struct {
	Name             string
	Pose             *referenceframe.PoseInFrame
	Approach         GripperTranslation
	Retreat          GripperTranslation
	PostPlacePosture GripperPosture
}

// GraspGenerator enumerates candidate hand poses for a target. It holds no
// iteration state, so the sequences it returns can be consumed independently
// and restarted at will.
type GraspGenerator struct {
	cfg *Config
}

func NewGraspGenerator(cfg *Config) *GraspGenerator {
	return &GraspGenerator{cfg: cfg}
}

func (g *GraspGenerator) posture(width float64) GripperPosture {
	return GripperPosture{
		JointNames: append([]string(nil), g.cfg.GripperJointNames...),
		Positions:  []float64{width, width},
	}
}

func (g *GraspGenerator) translation(axis float64) GripperTranslation {
	return GripperTranslation{
		Direction:       r3.Vector{X: axis},
		Frame:           g.cfg.GripperFrame,
		MinDistance:     g.cfg.ApproachMinDistance,
		DesiredDistance: g.cfg.ApproachDesiredDistance,
	}
}

// orient re-expresses the target with the wrist pitched down by
// (overheadPitch - pitchOffset) and spun by yaw, keeping the target's point
// and frame.
func orient(target *referenceframe.PoseInFrame, pitchOffset, yaw float64) *referenceframe.PoseInFrame {
	o := &spatialmath.EulerAngles{Pitch: overheadPitch - pitchOffset, Yaw: yaw}
	return referenceframe.NewPoseInFrame(target.Parent(), spatialmath.NewPose(target.Pose().Point(), o))
}

func candidateName(pitchOffset, yaw float64) string {
	return fmt.Sprintf("pitch%.2f_yaw%.2f", pitchOffset, yaw)
}

// graspQuality scores a candidate. The direct overhead grasp scores 1.0;
// quality drops with wrist tilt and with yaw magnitude.
func graspQuality(pitchOffset, yaw float64) float64 {
	return 1.0 - 1.25*pitchOffset - math.Abs(yaw)/4.0
}

// Grasps returns the 21-candidate grasp sequence for a target pose, best
// first: the direct overhead grasp, then each pitch offset across the yaw
// fan. Calling it twice with the same target yields an identical sequence.
func (g *GraspGenerator) Grasps(target *referenceframe.PoseInFrame) iter.Seq[GraspCandidate] {
	return func(yield func(GraspCandidate) bool) {
		emit := func(name string, pitchOffset, yaw, quality float64) bool {
			return yield(GraspCandidate{
				Name:            name,
				Pose:            orient(target, pitchOffset, yaw),
				PreGraspPosture: g.posture(g.cfg.GripperOpen),
				GraspPosture:    g.posture(g.cfg.GripperClosed),
				Approach:        g.translation(1.0),
				Retreat:         g.translation(-1.0),
				Quality:         quality,
			})
		}
		if !emit(DirectOverheadGrasp, 0, 0, 1.0) {
			return
		}
		for _, p := range graspPitchOffsets {
			for _, y := range graspYaws {
				if !emit(candidateName(p, y), p, y, graspQuality(p, y)) {
					return
				}
			}
		}
	}
}

// Places returns the place-location sequence for a target pose: the same 21
// orientations in the same order as Grasps, but carrying a post-place open
// posture and no quality score.
func (g *GraspGenerator) Places(target *referenceframe.PoseInFrame) iter.Seq[PlaceCandidate] {
	return func(yield func(PlaceCandidate) bool) {
		emit := func(name string, pitchOffset, yaw float64) bool {
			return yield(PlaceCandidate{
				Name:             name,
				Pose:             orient(target, pitchOffset, yaw),
				Approach:         g.translation(1.0),
				Retreat:          g.translation(-1.0),
				PostPlacePosture: g.posture(g.cfg.GripperOpen),
			})
		}
		if !emit(DirectOverheadGrasp, 0, 0) {
			return
		}
		for _, p := range graspPitchOffsets {
			for _, y := range graspYaws {
				if !emit(candidateName(p, y), p, y) {
					return
				}
			}
		}
	}
}
