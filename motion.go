package chess_arm

import (
	"context"
	"fmt"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
)

// ArmMover issues single-shot motion goals: joint-space postures and
// pose-space end-effector targets. It never retries; a failed outcome goes
// straight back to the caller.
type ArmMover struct {
	planner     MotionPlanner
	transformer PoseTransformer
	cfg         *Config
	logger      logging.Logger
}

func NewArmMover(planner MotionPlanner, transformer PoseTransformer, cfg *Config, logger logging.Logger) *ArmMover {
	return &ArmMover{
		planner:     planner,
		transformer: transformer,
		cfg:         cfg,
		logger:      logger,
	}
}

// MoveToJointPositions submits one goal expressing each named joint as an
// equality constraint within tolerance and returns the planner's outcome
// verbatim.
func (m *ArmMover) MoveToJointPositions(ctx context.Context, names []string, positions []float64, tolerance float64) (PlanOutcome, error) {
	if len(names) != len(positions) {
		return PlanOutcome{}, fmt.Errorf("expected %d joint positions, got %d", len(names), len(positions))
	}
	constraints := make([]JointConstraint, len(names))
	for i, name := range names {
		constraints[i] = JointConstraint{
			JointName:      name,
			Position:       positions[i],
			ToleranceAbove: tolerance,
			ToleranceBelow: tolerance,
			Weight:         1.0,
		}
	}
	return m.planner.MoveGroup(ctx, &MotionGoal{
		JointConstraints:    constraints,
		GroupName:           m.cfg.ArmGroup,
		PlanningAttempts:    m.cfg.PlanningAttempts,
		AllowedPlanningTime: m.cfg.MotionPlanningTime,
		PlanOnly:            m.cfg.PlanOnly,
	})
}

// MoveToPose submits one goal driving the gripper frame to the target pose,
// re-expressed in the fixed planning frame first.
func (m *ArmMover) MoveToPose(ctx context.Context, target *referenceframe.PoseInFrame, tolerance float64) (PlanOutcome, error) {
	fixed, err := m.transformer.TransformPose(ctx, target, m.cfg.FixedFrame)
	if err != nil {
		return PlanOutcome{}, err
	}
	return m.planner.MoveGroup(ctx, &MotionGoal{
		GoalPose:             fixed,
		EndEffectorLink:      m.cfg.GripperFrame,
		PositionTolerance:    tolerance,
		OrientationTolerance: tolerance,
		GroupName:            m.cfg.ArmGroup,
		PlanningAttempts:     m.cfg.PlanningAttempts,
		AllowedPlanningTime:  m.cfg.MotionPlanningTime,
		PlanOnly:             m.cfg.PlanOnly,
	})
}

// Tuck moves the arm to its rest posture.
func (m *ArmMover) Tuck(ctx context.Context) error {
	outcome, err := m.MoveToJointPositions(ctx, m.cfg.JointNames, m.cfg.TuckedPositions, m.cfg.JointTolerance)
	if err != nil {
		return err
	}
	if !outcome.Success() {
		m.logger.Warnf("tuck motion failed with code %d", outcome.Code)
	}
	return nil
}

// Untuck moves the arm to its working posture, if one is configured.
func (m *ArmMover) Untuck(ctx context.Context) error {
	if len(m.cfg.UntuckedPositions) == 0 {
		return nil
	}
	outcome, err := m.MoveToJointPositions(ctx, m.cfg.JointNames, m.cfg.UntuckedPositions, m.cfg.JointTolerance)
	if err != nil {
		return err
	}
	if !outcome.Success() {
		m.logger.Warnf("untuck motion failed with code %d", outcome.Code)
	}
	return nil
}
