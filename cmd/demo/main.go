package main

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"

	chessarm "chess_arm"
)

func main() {
	if err := realMain(); err != nil {
		panic(err)
	}
}

// simPlanner stands in for the motion-planning action service: it accepts
// every goal and logs what it was asked to do.
type simPlanner struct {
	logger logging.Logger
}

func (p *simPlanner) Pickup(ctx context.Context, goal *chessarm.PickupGoal) (chessarm.PlanOutcome, error) {
	p.logger.Infof("pickup %q with grasp %q", goal.TargetName, goal.Grasps[0].Name)
	return chessarm.PlanOutcome{Code: chessarm.PlanOutcomeSuccess}, nil
}

func (p *simPlanner) Place(ctx context.Context, goal *chessarm.PlaceGoal) (chessarm.PlanOutcome, error) {
	p.logger.Infof("place %q at %q", goal.AttachedObjectName, goal.Locations[0].Name)
	return chessarm.PlanOutcome{Code: chessarm.PlanOutcomeSuccess}, nil
}

func (p *simPlanner) MoveGroup(ctx context.Context, goal *chessarm.MotionGoal) (chessarm.PlanOutcome, error) {
	p.logger.Infof("motion goal with %d joint constraints", len(goal.JointConstraints))
	return chessarm.PlanOutcome{Code: chessarm.PlanOutcomeSuccess}, nil
}

// loopbackScene echoes published collision-object commands back as scene
// snapshots, the way a live planner's monitored scene feed would.
type loopbackScene struct {
	commands chan chessarm.SceneCommand
}

func (s *loopbackScene) PublishCollisionObject(cmd chessarm.SceneCommand) error {
	select {
	case s.commands <- cmd:
	default: // convergence re-publishes; dropping duplicates is fine
	}
	return nil
}

func (s *loopbackScene) run(ctx context.Context, tracker *chessarm.SceneTracker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.commands:
			tracker.HandleSnapshot(chessarm.SceneSnapshot{
				Objects: []chessarm.ObjectEvent{{Name: cmd.Object.Name, Operation: cmd.Operation}},
			})
		}
	}
}

func realMain() error {
	logger := logging.NewLogger("chess-arm-demo")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &chessarm.Config{
		ScenePollInterval: 50 * time.Millisecond,
		SceneSyncTimeout:  5 * time.Second,
		SettleDelay:       100 * time.Millisecond,
		Logger:            logger,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	scene := &loopbackScene{commands: make(chan chessarm.SceneCommand, 16)}
	tracker := chessarm.NewSceneTracker(scene, cfg, logger)

	group, feedCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return scene.run(feedCtx, tracker) })

	// Board sits 0.2m in front of the arm base, on the table surface.
	transformer := chessarm.NewStaticTransformer(cfg.FixedFrame)
	transformer.SetFrame(cfg.BoardFrame, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.2, Z: 0.65}))

	executor := chessarm.NewMoveExecutor(&simPlanner{logger: logger}, tracker, transformer, cfg, logger)

	board := chessarm.NewBoard(cfg.BoardFrame, cfg.SquareSize, chessarm.White)
	board.NewGame()

	for _, move := range []string{"e2e4", "d7d5", "e4d5"} {
		logger.Infof("executing %s", move)
		pose, err := executor.Execute(ctx, move, board)
		if err != nil {
			logger.Errorf("move %s failed: %v", move, err)
			break
		}
		logger.Infof("move %s placed piece at %v", move, pose.Pose().Point())
		if err := board.ApplyMove(move, pose); err != nil {
			return err
		}
	}

	cancel()
	return group.Wait()
}
