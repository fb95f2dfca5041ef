package chess_arm

import (
	"context"
	"time"

	"go.viam.com/rdk/referenceframe"
)

// PlanOutcomeSuccess is the planner result code denoting success. Any other
// value is a failure whose cause the planner does not expose to us.
const PlanOutcomeSuccess int32 = 1

// PlanOutcome is the result of one planner action, returned verbatim.
type PlanOutcome struct {
	Code int32
}

func (o PlanOutcome) Success() bool {
	return o.Code == PlanOutcomeSuccess
}

// PickupGoal asks the planner to lift a named collision object using one of
// the supplied grasps. This package always supplies exactly one grasp per
// goal so that retry order stays under our control.
type PickupGoal struct {
	TargetName                   string
	GroupName                    string
	EndEffector                  string
	Grasps                       []GraspCandidate
	SupportSurface               string
	AllowGripperSupportCollision bool
	AttachedObjectTouchLinks     []string // empty = all end-effector links
	AllowedPlanningTime          time.Duration
	PlanOnly                     bool
}

// PlaceGoal asks the planner to set down the currently attached object at one
// of the supplied locations. One location per goal, as with PickupGoal.
type PlaceGoal struct {
	AttachedObjectName           string
	GroupName                    string
	Locations                    []PlaceCandidate
	SupportSurface               string
	AllowGripperSupportCollision bool
	AllowedPlanningTime          time.Duration
	PlanOnly                     bool
}

// JointConstraint pins one joint to a position within a tolerance window.
type JointConstraint struct {
	JointName      string
	Position       float64
	ToleranceAbove float64
	ToleranceBelow float64
	Weight         float64
}

// MotionGoal is a generic joint-space or pose-space motion request. Exactly
// one of JointConstraints or GoalPose should be populated.
type MotionGoal struct {
	JointConstraints []JointConstraint

	GoalPose             *referenceframe.PoseInFrame
	EndEffectorLink      string
	PositionTolerance    float64
	OrientationTolerance float64

	GroupName           string
	PlanningAttempts    int
	AllowedPlanningTime time.Duration
	PlanOnly            bool
	LookAround          bool
	Replan              bool
}

// MotionPlanner is the boundary to the external motion-planning action
// service. Every call submits one goal and blocks until its result. A non-nil
// error means the goal never reached the planner; planner-side failures come
// back as non-success outcomes.
type MotionPlanner interface {
	Pickup(ctx context.Context, goal *PickupGoal) (PlanOutcome, error)
	Place(ctx context.Context, goal *PlaceGoal) (PlanOutcome, error)
	MoveGroup(ctx context.Context, goal *MotionGoal) (PlanOutcome, error)
}
