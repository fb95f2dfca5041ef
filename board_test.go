package chess_arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSquare(t *testing.T) {
	col, rank, err := ParseSquare("e2")
	require.NoError(t, err)
	assert.Equal(t, 4, col)
	assert.Equal(t, 2, rank)

	for _, bad := range []string{"", "e", "i1", "a0", "a9", "e22"} {
		_, _, err := ParseSquare(bad)
		assert.Error(t, err, "square %q", bad)
	}
}

func TestNewGameLayout(t *testing.T) {
	b := NewBoard("chess_board", SquareSize, White)
	b.NewGame()

	e1 := b.PieceAt(4, 1)
	require.NotNil(t, e1)
	assert.Equal(t, King, e1.Type)
	assert.Equal(t, White, e1.Color)

	d8 := b.PieceAt(3, 8)
	require.NotNil(t, d8)
	assert.Equal(t, Queen, d8.Type)
	assert.Equal(t, Black, d8.Color)

	for col := 0; col < 8; col++ {
		require.NotNil(t, b.PieceAt(col, 2))
		assert.Equal(t, Pawn, b.PieceAt(col, 2).Type)
		assert.Nil(t, b.PieceAt(col, 4))
	}

	// piece poses sit at square centers in the board frame
	a1 := b.PieceAt(0, 1)
	pt := a1.Pose.Pose().Point()
	assert.InDelta(t, SquareSize/2, pt.X, 1e-9)
	assert.InDelta(t, SquareSize/2, pt.Y, 1e-9)
	assert.Equal(t, "chess_board", a1.Pose.Parent())
}

func TestReachPose(t *testing.T) {
	t.Run("white addresses squares directly", func(t *testing.T) {
		b := NewBoard("chess_board", SquareSize, White)
		p := b.ReachPose(4, 4, 0.03).Pose().Point() // e4
		assert.InDelta(t, 4*SquareSize+SquareSize/2, p.X, 1e-9)
		assert.InDelta(t, 3*SquareSize+SquareSize/2, p.Y, 1e-9)
		assert.InDelta(t, 0.03, p.Z, 1e-9)
	})

	t.Run("black mirrors the layout", func(t *testing.T) {
		b := NewBoard("chess_board", SquareSize, Black)
		p := b.ReachPose(4, 4, 0.03).Pose().Point() // e4 seen from the far side
		assert.InDelta(t, 3*SquareSize+SquareSize/2, p.X, 1e-9)
		assert.InDelta(t, 4*SquareSize+SquareSize/2, p.Y, 1e-9)
	})

	t.Run("the two views cover the same squares", func(t *testing.T) {
		white := NewBoard("chess_board", SquareSize, White)
		black := NewBoard("chess_board", SquareSize, Black)
		// a1 for white lands where h8 lands for black
		pw := white.ReachPose(0, 1, 0).Pose().Point()
		pb := black.ReachPose(7, 8, 0).Pose().Point()
		assert.InDelta(t, pw.X, pb.X, 1e-9)
		assert.InDelta(t, pw.Y, pb.Y, 1e-9)
	})
}

func TestApplyMove(t *testing.T) {
	t.Run("moves the piece and clears the source", func(t *testing.T) {
		b := NewBoard("chess_board", SquareSize, White)
		b.NewGame()
		require.NoError(t, b.ApplyMove("e2e4", nil))
		assert.Nil(t, b.PieceAt(4, 2))
		require.NotNil(t, b.PieceAt(4, 4))
		assert.Equal(t, Pawn, b.PieceAt(4, 4).Type)
	})

	t.Run("castling drags the rook along", func(t *testing.T) {
		b := NewBoard("chess_board", SquareSize, White)
		b.NewGame()
		// clear f1 and g1 so the king-side castle is physically possible
		b.SetPiece(5, 1, nil)
		b.SetPiece(6, 1, nil)

		require.NoError(t, b.ApplyMove("e1g1", nil))
		require.NotNil(t, b.PieceAt(6, 1))
		assert.Equal(t, King, b.PieceAt(6, 1).Type)
		require.NotNil(t, b.PieceAt(5, 1))
		assert.Equal(t, Rook, b.PieceAt(5, 1).Type)
		assert.Nil(t, b.PieceAt(7, 1))
		assert.Nil(t, b.PieceAt(4, 1))
	})

	t.Run("moving from an empty square is an error", func(t *testing.T) {
		b := NewBoard("chess_board", SquareSize, White)
		b.NewGame()
		assert.Error(t, b.ApplyMove("e4e5", nil))
	})
}

func TestColName(t *testing.T) {
	assert.Equal(t, "a", ColName(0))
	assert.Equal(t, "h", ColName(7))
}
