package chess_arm

import (
	"context"
	"iter"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
)

// GraspExecutor drives pickup and place attempts against the planner,
// walking a candidate sequence in order and stopping at the first success.
type GraspExecutor struct {
	planner MotionPlanner
	grasps  *GraspGenerator
	cfg     *Config
	logger  logging.Logger
}

func NewGraspExecutor(planner MotionPlanner, cfg *Config, logger logging.Logger) *GraspExecutor {
	return &GraspExecutor{
		planner: planner,
		grasps:  NewGraspGenerator(cfg),
		cfg:     cfg,
		logger:  logger,
	}
}

// trySequence submits one goal per candidate, in sequence order, until one
// succeeds. It returns (false, nil) when the sequence is exhausted: running
// out of candidates is an expected outcome, not a transport error. No
// candidate is ever retried.
func trySequence[T any](
	ctx context.Context,
	logger logging.Logger,
	kind string,
	seq iter.Seq[T],
	attempt func(context.Context, T) (PlanOutcome, error),
) (bool, error) {
	n := 0
	for candidate := range seq {
		n++
		if err := ctx.Err(); err != nil {
			return false, err
		}
		outcome, err := attempt(ctx, candidate)
		if err != nil {
			return false, err
		}
		if outcome.Success() {
			logger.Debugf("%s attempt %d succeeded", kind, n)
			return true, nil
		}
		logger.Debugf("%s attempt %d failed with code %d", kind, n, outcome.Code)
	}
	logger.Warnf("%s failed: all %d candidates exhausted", kind, n)
	return false, nil
}

// Pickup attempts to lift the named object at the target pose. It returns
// false with a nil error when every grasp candidate was rejected.
func (e *GraspExecutor) Pickup(ctx context.Context, name string, target *referenceframe.PoseInFrame) (bool, error) {
	return trySequence(ctx, e.logger, "pickup", e.grasps.Grasps(target),
		func(ctx context.Context, grasp GraspCandidate) (PlanOutcome, error) {
			return e.planner.Pickup(ctx, &PickupGoal{
				TargetName:                   name,
				GroupName:                    e.cfg.ArmGroup,
				EndEffector:                  e.cfg.GripperGroup,
				Grasps:                       []GraspCandidate{grasp},
				SupportSurface:               TableObjectName,
				AllowGripperSupportCollision: true,
				AllowedPlanningTime:          e.cfg.AllowedPlanningTime,
				PlanOnly:                     e.cfg.PlanOnly,
			})
		})
}

// Place attempts to set the attached object down at the target pose. Same
// exhaustion semantics as Pickup.
func (e *GraspExecutor) Place(ctx context.Context, name string, target *referenceframe.PoseInFrame) (bool, error) {
	return trySequence(ctx, e.logger, "place", e.grasps.Places(target),
		func(ctx context.Context, location PlaceCandidate) (PlanOutcome, error) {
			return e.planner.Place(ctx, &PlaceGoal{
				AttachedObjectName:           name,
				GroupName:                    e.cfg.ArmGroup,
				Locations:                    []PlaceCandidate{location},
				SupportSurface:               TableObjectName,
				AllowGripperSupportCollision: true,
				AllowedPlanningTime:          e.cfg.AllowedPlanningTime,
				PlanOnly:                     e.cfg.PlanOnly,
			})
		})
}
