package chess_arm

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
)

// MoveState is the executor's position in the move state machine.
type MoveState int

const (
	StateIdle MoveState = iota
	StateUpdatingWorld
	StatePicking
	StatePlacing
	StateHandlingCastlingExtra
	StateTucking
	StateDone
	StateFailed
)

func (s MoveState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUpdatingWorld:
		return "updating_world"
	case StatePicking:
		return "picking"
	case StatePlacing:
		return "placing"
	case StateHandlingCastlingExtra:
		return "handling_castling_extra"
	case StateTucking:
		return "tucking"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// A move is at most the primary relocation plus one nested castling extra.
const maxMoveDepth = 2

// ErrMoveFailed reports that a pick or place sub-move exhausted all of its
// candidates or the scene never converged, aborting the enclosing move.
var ErrMoveFailed = errors.New("move failed")

// MoveExecutor sequences the world updates, pickup, place and tuck needed to
// carry out one semantic chess move, including the capture relocation and
// castling rook sub-moves. It is driven by a single control goroutine; only
// the scene tracker it holds is touched from elsewhere.
type MoveExecutor struct {
	cfg         *Config
	logger      logging.Logger
	scene       *SceneTracker
	grasp       *GraspExecutor
	arm         *ArmMover
	transformer PoseTransformer

	mu     sync.Mutex
	state  MoveState
	failed bool
}

func NewMoveExecutor(planner MotionPlanner, scene *SceneTracker, transformer PoseTransformer, cfg *Config, logger logging.Logger) *MoveExecutor {
	return &MoveExecutor{
		cfg:         cfg,
		logger:      logger,
		scene:       scene,
		grasp:       NewGraspExecutor(planner, cfg, logger),
		arm:         NewArmMover(planner, transformer, cfg, logger),
		transformer: transformer,
		state:       StateIdle,
	}
}

// State returns the executor's current state-machine position.
func (e *MoveExecutor) State() MoveState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastMoveFailed reports whether the most recent Execute aborted.
func (e *MoveExecutor) LastMoveFailed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

func (e *MoveExecutor) setState(s MoveState) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	e.logger.Debugf("move executor: %s -> %s", prev, s)
}

func (e *MoveExecutor) setFailed(failed bool) {
	e.mu.Lock()
	e.failed = failed
	e.mu.Unlock()
}

// Execute carries out one move given in coordinate notation ("e2e4") against
// the current board state. On success it returns the destination pose the
// piece was placed at. On a capture, the captured piece is first relocated
// off the board; if that or the primary relocation fails, the move is
// aborted, the arm is tucked and no pose is returned. A failed castling rook
// follow-through is logged but does not fail the move.
func (e *MoveExecutor) Execute(ctx context.Context, move string, board *Board) (*referenceframe.PoseInFrame, error) {
	e.setFailed(false)
	return e.execute(ctx, move, board, 1)
}

func (e *MoveExecutor) execute(ctx context.Context, move string, board *Board, depth int) (*referenceframe.PoseInFrame, error) {
	if depth > maxMoveDepth {
		return nil, errors.Errorf("move recursion depth %d exceeds limit %d", depth, maxMoveDepth)
	}
	if len(move) != 4 {
		return nil, errors.Errorf("invalid move %q", move)
	}
	colF, rankF, err := ParseSquare(move[0:2])
	if err != nil {
		return nil, err
	}
	colT, rankT, err := ParseSquare(move[2:4])
	if err != nil {
		return nil, err
	}
	fr := board.PieceAt(colF, rankF)
	if fr == nil {
		return nil, errors.Errorf("no piece on %s", move[0:2])
	}
	to := board.PieceAt(colT, rankT)
	srcZ := fr.Pose.Pose().Point().Z

	if to != nil {
		if to.Color == fr.Color {
			return nil, errors.Errorf("%s is occupied by our own piece", move[2:4])
		}
		offBoard := referenceframe.NewPoseInFrame(fr.Pose.Parent(),
			spatialmath.NewPoseFromPoint(e.cfg.offBoardPosition(srcZ)))
		if err := e.subMove(ctx, to.Pose, offBoard); err != nil {
			e.logger.Errorf("failed to relocate captured piece: %v", err)
			return nil, e.abort(ctx, err)
		}
	}

	dest := board.ReachPose(colT, rankT, srcZ)
	if err := e.subMove(ctx, fr.Pose, dest); err != nil {
		e.logger.Errorf("failed to move our piece: %v", err)
		return nil, e.abort(ctx, err)
	}

	if extra, ok := CastlingExtras[move]; ok {
		e.setState(StateHandlingCastlingExtra)
		// The rook follow-through is advisory: its failure is logged but
		// neither aborts the move nor sets the failed flag.
		wasFailed := e.LastMoveFailed()
		if _, err := e.execute(ctx, extra, board, depth+1); err != nil {
			e.logger.Errorf("failed to carry out castling extra %s: %v", extra, err)
		}
		e.setFailed(wasFailed)
	}

	e.finishTuck(ctx)
	e.setState(StateDone)
	return dest, nil
}

// abort marks the move failed, tucks the arm and returns the error the
// caller should surface.
func (e *MoveExecutor) abort(ctx context.Context, cause error) error {
	e.setFailed(true)
	e.finishTuck(ctx)
	e.setState(StateFailed)
	return cause
}

func (e *MoveExecutor) finishTuck(ctx context.Context) {
	e.setState(StateTucking)
	if err := e.arm.Tuck(ctx); err != nil {
		e.logger.Errorf("tuck failed: %v", err)
	}
}

// subMove relocates one piece from src to dst: refresh the table and piece
// collision objects, pick the piece up, settle, and place it. src and dst
// are board-frame piece poses.
func (e *MoveExecutor) subMove(ctx context.Context, src, dst *referenceframe.PoseInFrame) error {
	e.setState(StateUpdatingWorld)

	// The table collision box doubles as the support surface, so it gets
	// refreshed before every relocation in case the board was bumped.
	e.logger.Debug("updating table position")
	if err := e.scene.Remove(ctx, TableObjectName); err != nil {
		return errors.Wrap(err, "removing stale table")
	}
	tableCenter := referenceframe.NewPoseInFrame(e.cfg.BoardFrame,
		spatialmath.NewPoseFromPoint(r3.Vector{X: 4 * e.cfg.SquareSize, Y: 4 * e.cfg.SquareSize}))
	tableFixed, err := e.transformer.TransformPose(ctx, tableCenter, e.cfg.FixedFrame)
	if err != nil {
		return err
	}
	tableDims := r3.Vector{X: 8 * e.cfg.SquareSize, Y: 8 * e.cfg.SquareSize, Z: e.cfg.BoardThickness}
	if err := e.scene.AddBox(ctx, TableObjectName, tableDims, tableFixed); err != nil {
		return errors.Wrap(err, "adding table")
	}

	e.logger.Debug("updating piece position")
	if err := e.scene.Remove(ctx, PieceObjectName); err != nil {
		return errors.Wrap(err, "removing stale piece")
	}
	graspTarget, err := e.transformer.TransformPose(ctx, atHeight(src, e.cfg.PieceGraspHeight), e.cfg.FixedFrame)
	if err != nil {
		return err
	}
	if err := e.scene.AddCube(ctx, PieceObjectName, e.cfg.PieceSize, graspTarget); err != nil {
		return errors.Wrap(err, "adding piece")
	}

	e.setState(StatePicking)
	ok, err := e.grasp.Pickup(ctx, PieceObjectName, graspTarget)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(ErrMoveFailed, "pickup")
	}

	// Let the attached-object state settle before planning the place.
	if !goutils.SelectContextOrWait(ctx, e.cfg.SettleDelay) {
		return ctx.Err()
	}

	e.setState(StatePlacing)
	placeTarget, err := e.transformer.TransformPose(ctx, atHeight(dst, e.cfg.PiecePlaceHeight), e.cfg.FixedFrame)
	if err != nil {
		return err
	}
	ok, err = e.grasp.Place(ctx, PieceObjectName, placeTarget)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(ErrMoveFailed, "place")
	}
	return nil
}

// atHeight copies a pose with its z replaced.
func atHeight(p *referenceframe.PoseInFrame, z float64) *referenceframe.PoseInFrame {
	pt := p.Pose().Point()
	pt.Z = z
	return referenceframe.NewPoseInFrame(p.Parent(), spatialmath.NewPoseFromPoint(pt))
}
