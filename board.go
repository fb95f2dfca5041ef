package chess_arm

import (
	"fmt"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
)

// Side identifies which color the robot (or a piece) plays.
type Side int

const (
	White Side = 1
	Black Side = -1
)

// PieceType is a chess piece kind, color-independent.
type PieceType int

const (
	Pawn PieceType = iota + 1
	Rook
	Knight
	Bishop
	Queen
	King
)

// pieceStandHeight is the nominal z of a resting piece above the board plane.
const pieceStandHeight = 0.03

// CastlingExtras maps a castling king move to the rook move that must follow.
var CastlingExtras = map[string]string{
	"e1c1": "a1d1",
	"e1g1": "h1f1",
	"e8c8": "a8d8",
	"e8g8": "h8f8",
}

// Piece is one chess piece and its last observed pose.
type Piece struct {
	Type  PieceType
	Color Side
	Pose  *referenceframe.PoseInFrame
}

// Board is the 8x8 square->piece map, addressed by zero-based column and
// 1-based rank. It is maintained by the caller (perception or an engine);
// the move executor only reads it.
type Board struct {
	frame      string
	squareSize float64
	Side       Side
	squares    [64]*Piece
}

func NewBoard(frame string, squareSize float64, side Side) *Board {
	return &Board{frame: frame, squareSize: squareSize, Side: side}
}

// NewGame resets the board to the initial chess position.
func (b *Board) NewGame() {
	b.squares = [64]*Piece{}
	backRank := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for col := 0; col < 8; col++ {
		b.SetPiece(col, 2, b.makePiece(Pawn, White, col, 2))
		b.SetPiece(col, 7, b.makePiece(Pawn, Black, col, 7))
		b.SetPiece(col, 1, b.makePiece(backRank[col], White, col, 1))
		b.SetPiece(col, 8, b.makePiece(backRank[col], Black, col, 8))
	}
}

func (b *Board) makePiece(t PieceType, color Side, col, rank int) *Piece {
	pt := r3.Vector{
		X: b.squareSize * (0.5 + float64(col)),
		Y: b.squareSize * (0.5 + float64(rank-1)),
		Z: pieceStandHeight,
	}
	return &Piece{
		Type:  t,
		Color: color,
		Pose:  referenceframe.NewPoseInFrame(b.frame, spatialmath.NewPoseFromPoint(pt)),
	}
}

// ParseSquare converts an algebraic square like "e2" to a zero-based column
// and 1-based rank.
func ParseSquare(sq string) (int, int, error) {
	if len(sq) != 2 {
		return 0, 0, fmt.Errorf("invalid square %q", sq)
	}
	col := int(sq[0] - 'a')
	rank := int(sq[1] - '0')
	if col < 0 || col > 7 || rank < 1 || rank > 8 {
		return 0, 0, fmt.Errorf("invalid square %q", sq)
	}
	return col, rank, nil
}

// ColName converts a zero-based column index to its letter.
func ColName(col int) string {
	return string(rune('a' + col))
}

// Valid reports whether a column/rank pair addresses a real square.
func (b *Board) Valid(col, rank int) bool {
	return col >= 0 && col < 8 && rank >= 1 && rank <= 8
}

// PieceAt returns the piece on a square, or nil for an empty or invalid one.
func (b *Board) PieceAt(col, rank int) *Piece {
	if !b.Valid(col, rank) {
		return nil
	}
	return b.squares[(rank-1)*8+col]
}

// SetPiece sets (or clears, with nil) the piece on a square.
func (b *Board) SetPiece(col, rank int, p *Piece) {
	if !b.Valid(col, rank) {
		return
	}
	b.squares[(rank-1)*8+col] = p
}

// SquarePose is the board-frame pose of a square center at height z, with no
// side mirroring applied.
func (b *Board) SquarePose(col, rank int, z float64) *referenceframe.PoseInFrame {
	pt := r3.Vector{
		X: b.squareSize * (0.5 + float64(col)),
		Y: b.squareSize * (0.5 + float64(rank-1)),
		Z: z,
	}
	return referenceframe.NewPoseInFrame(b.frame, spatialmath.NewPoseFromPoint(pt))
}

// ReachPose is the board-frame pose the arm must reach to address a square.
// When playing black the board is addressed from the far side, so the square
// layout is mirrored to keep "forward" pointing away from the acting side.
func (b *Board) ReachPose(col, rank int, z float64) *referenceframe.PoseInFrame {
	var pt r3.Vector
	if b.Side == Black {
		pt = r3.Vector{
			X: float64(7-col)*b.squareSize + b.squareSize/2,
			Y: float64(8-rank)*b.squareSize + b.squareSize/2,
			Z: z,
		}
	} else {
		pt = r3.Vector{
			X: float64(col)*b.squareSize + b.squareSize/2,
			Y: float64(rank-1)*b.squareSize + b.squareSize/2,
			Z: z,
		}
	}
	return referenceframe.NewPoseInFrame(b.frame, spatialmath.NewPoseFromPoint(pt))
}

// ApplyMove updates the board after a physically executed move, including
// the rook follow-through for castling. The destination pose, when given,
// replaces the moved piece's tracked pose.
func (b *Board) ApplyMove(move string, pose *referenceframe.PoseInFrame) error {
	if len(move) != 4 {
		return fmt.Errorf("invalid move %q", move)
	}
	colF, rankF, err := ParseSquare(move[0:2])
	if err != nil {
		return err
	}
	colT, rankT, err := ParseSquare(move[2:])
	if err != nil {
		return err
	}
	piece := b.PieceAt(colF, rankF)
	if piece == nil {
		return fmt.Errorf("no piece on %s", move[0:2])
	}
	if pose != nil {
		piece.Pose = pose
	}
	b.SetPiece(colT, rankT, piece)
	b.SetPiece(colF, rankF, nil)
	if extra, ok := CastlingExtras[move]; ok {
		return b.ApplyMove(extra, nil)
	}
	return nil
}
