package chess_arm

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
)

// SquareSize is the edge length of one board square in meters.
const SquareSize = 0.05715

type Config struct {
	// Planning group names
	ArmGroup     string `json:"arm_group,omitempty"`     // Planning group for the arm (default: "arm")
	GripperGroup string `json:"gripper_group,omitempty"` // Planning group for the end effector (default: "gripper")

	// Reference frames
	FixedFrame   string `json:"fixed_frame,omitempty"`   // Frame all goals are planned in (default: "base_link")
	BoardFrame   string `json:"board_frame,omitempty"`   // Frame attached to square a1's corner (default: "chess_board")
	GripperFrame string `json:"gripper_frame,omitempty"` // Frame approach/retreat translations are expressed in (default: "gripper_link")

	// Gripper configuration. Widths are the opening distance in meters; the
	// planner expects the width duplicated across a two-element joint record.
	GripperJointNames []string `json:"gripper_joint_names,omitempty"`
	GripperOpen       float64  `json:"gripper_open,omitempty"`   // default: 0.05
	GripperClosed     float64  `json:"gripper_closed,omitempty"` // default: 0.01

	// Board and piece geometry
	SquareSize       float64 `json:"square_size,omitempty"`
	BoardThickness   float64 `json:"board_thickness,omitempty"`    // collision box depth for the table (default: 0.10)
	PieceSize        float64 `json:"piece_size,omitempty"`         // collision cube edge for a piece (default: 0.015)
	PieceGraspHeight float64 `json:"piece_grasp_height,omitempty"` // z of the grasp target above the board (default: 0.0375)
	PiecePlaceHeight float64 `json:"piece_place_height,omitempty"` // z of the place target above the board (default: 0.04)

	// Where captured pieces get dropped, in board-frame x/y (z follows the piece).
	OffBoardX float64 `json:"off_board_x,omitempty"` // default: -2 squares
	OffBoardY float64 `json:"off_board_y,omitempty"` // default: 1 square

	// Approach/retreat translation distances in meters
	ApproachMinDistance     float64 `json:"approach_min_distance,omitempty"`     // default: 0.05
	ApproachDesiredDistance float64 `json:"approach_desired_distance,omitempty"` // default: 0.15

	// Planner budgets
	AllowedPlanningTime time.Duration `json:"allowed_planning_time,omitempty"` // pick/place budget (default: 30s)
	MotionPlanningTime  time.Duration `json:"motion_planning_time,omitempty"`  // joint/pose goal budget (default: 15s)
	PlanningAttempts    int           `json:"planning_attempts,omitempty"`     // default: 1
	PlanOnly            bool          `json:"plan_only,omitempty"`

	// Arm rest postures
	JointNames        []string  `json:"joint_names,omitempty"`
	TuckedPositions   []float64 `json:"tucked_positions,omitempty"`
	UntuckedPositions []float64 `json:"untucked_positions,omitempty"`
	JointTolerance    float64   `json:"joint_tolerance,omitempty"` // default: 0.01 rad

	// Scene synchronization
	ScenePollInterval time.Duration `json:"scene_poll_interval,omitempty"` // default: 1s
	SceneSyncTimeout  time.Duration `json:"scene_sync_timeout,omitempty"`  // default: 30s
	SettleDelay       time.Duration `json:"settle_delay,omitempty"`        // pause between pick and place (default: 1s)

	// Internal logger (not from JSON)
	Logger logging.Logger `json:"-"`
}

// Default joint configuration for the 7-DOF arm this was built around.
var (
	defaultJointNames = []string{
		"arm_lift_joint", "arm_shoulder_pan_joint", "arm_upperarm_roll_joint",
		"arm_shoulder_lift_joint", "arm_elbow_flex_joint", "arm_wrist_flex_joint",
		"arm_wrist_roll_joint",
	}
	defaultTucked   = []float64{0.0, -1.57, 0.0, -1.7, 1.7, 1.57, -0.0664725}
	defaultUntucked = []float64{0.0, 0.0, 0.0, -1.57, 1.57, 1.57, -0.0664725}
)

// Validate ensures all parts of the config are valid, filling defaults in place.
func (cfg *Config) Validate() error {
	if cfg.ArmGroup == "" {
		cfg.ArmGroup = "arm"
	}
	if cfg.GripperGroup == "" {
		cfg.GripperGroup = "gripper"
	}
	if cfg.FixedFrame == "" {
		cfg.FixedFrame = "base_link"
	}
	if cfg.BoardFrame == "" {
		cfg.BoardFrame = "chess_board"
	}
	if cfg.GripperFrame == "" {
		cfg.GripperFrame = "gripper_link"
	}
	if len(cfg.GripperJointNames) == 0 {
		cfg.GripperJointNames = []string{"l_gripper_joint", "r_gripper_joint"}
	}
	if len(cfg.GripperJointNames) != 2 {
		return fmt.Errorf("expected 2 gripper joint names, got %d", len(cfg.GripperJointNames))
	}
	if cfg.GripperOpen == 0 {
		cfg.GripperOpen = 0.05
	}
	if cfg.GripperClosed == 0 {
		cfg.GripperClosed = 0.01
	}
	if cfg.SquareSize == 0 {
		cfg.SquareSize = SquareSize
	}
	if cfg.BoardThickness == 0 {
		cfg.BoardThickness = 0.10
	}
	if cfg.PieceSize == 0 {
		cfg.PieceSize = 0.015
	}
	if cfg.PieceGraspHeight == 0 {
		cfg.PieceGraspHeight = 0.0375
	}
	if cfg.PiecePlaceHeight == 0 {
		cfg.PiecePlaceHeight = 0.04
	}
	if cfg.OffBoardX == 0 {
		cfg.OffBoardX = -2 * cfg.SquareSize
	}
	if cfg.OffBoardY == 0 {
		cfg.OffBoardY = cfg.SquareSize
	}
	if cfg.ApproachMinDistance == 0 {
		cfg.ApproachMinDistance = 0.05
	}
	if cfg.ApproachDesiredDistance == 0 {
		cfg.ApproachDesiredDistance = 0.15
	}
	if cfg.AllowedPlanningTime == 0 {
		cfg.AllowedPlanningTime = 30 * time.Second
	}
	if cfg.MotionPlanningTime == 0 {
		cfg.MotionPlanningTime = 15 * time.Second
	}
	if cfg.PlanningAttempts == 0 {
		cfg.PlanningAttempts = 1
	}
	if len(cfg.JointNames) == 0 {
		cfg.JointNames = defaultJointNames
		cfg.TuckedPositions = defaultTucked
		cfg.UntuckedPositions = defaultUntucked
	}
	if len(cfg.TuckedPositions) != len(cfg.JointNames) {
		return fmt.Errorf("expected %d tucked positions, got %d", len(cfg.JointNames), len(cfg.TuckedPositions))
	}
	if len(cfg.UntuckedPositions) != 0 && len(cfg.UntuckedPositions) != len(cfg.JointNames) {
		return fmt.Errorf("expected %d untucked positions, got %d", len(cfg.JointNames), len(cfg.UntuckedPositions))
	}
	if cfg.JointTolerance == 0 {
		cfg.JointTolerance = 0.01
	}
	if cfg.ScenePollInterval == 0 {
		cfg.ScenePollInterval = time.Second
	}
	if cfg.SceneSyncTimeout == 0 {
		cfg.SceneSyncTimeout = 30 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = time.Second
	}
	return nil
}

// offBoardPosition is where a captured piece ends up, in the board frame.
func (cfg *Config) offBoardPosition(z float64) r3.Vector {
	return r3.Vector{X: cfg.OffBoardX, Y: cfg.OffBoardY, Z: z}
}
