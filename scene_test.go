package chess_arm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Started by init() of transitive rdk dependencies, before any test runs.
		goleak.IgnoreTopFunction("github.com/desertbit/timer.timerRoutine"),
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

// recordingScene captures published commands; tests play the feed side.
type recordingScene struct {
	mu   sync.Mutex
	cmds []SceneCommand
}

func (s *recordingScene) PublishCollisionObject(cmd SceneCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *recordingScene) published() []SceneCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SceneCommand(nil), s.cmds...)
}

func sceneTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		ScenePollInterval: 5 * time.Millisecond,
		SceneSyncTimeout:  time.Second,
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func boxPose(frame string) *referenceframe.PoseInFrame {
	return referenceframe.NewPoseInFrame(frame, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.2, Y: 0.2}))
}

func TestSceneTrackerConvergence(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	t.Run("add blocks until the feed confirms", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		pub := &recordingScene{}
		tracker := NewSceneTracker(pub, cfg, logger)

		assert.False(t, tracker.HasObject(TableObjectName))

		done := make(chan struct{})
		go func() {
			defer close(done)
			// let a couple of polls go by before confirming
			time.Sleep(20 * time.Millisecond)
			tracker.HandleSnapshot(SceneSnapshot{
				Objects: []ObjectEvent{{Name: TableObjectName, Operation: SceneAdd}},
			})
		}()

		err := tracker.AddBox(ctx, TableObjectName, r3.Vector{X: 0.46, Y: 0.46, Z: 0.1}, boxPose("base_link"))
		<-done
		require.NoError(t, err)
		assert.True(t, tracker.HasObject(TableObjectName))
		// initial publish plus at least one re-publish
		assert.GreaterOrEqual(t, len(pub.published()), 2)
	})

	t.Run("remove blocks until the feed drops the object", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		pub := &recordingScene{}
		tracker := NewSceneTracker(pub, cfg, logger)
		tracker.HandleSnapshot(SceneSnapshot{
			Objects: []ObjectEvent{{Name: PieceObjectName, Operation: SceneAdd}},
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			time.Sleep(20 * time.Millisecond)
			tracker.HandleSnapshot(SceneSnapshot{
				Objects: []ObjectEvent{{Name: PieceObjectName, Operation: SceneRemove}},
			})
		}()

		err := tracker.Remove(ctx, PieceObjectName)
		<-done
		require.NoError(t, err)
		assert.False(t, tracker.HasObject(PieceObjectName))
	})

	t.Run("removing a never-added object converges immediately", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		pub := &recordingScene{}
		tracker := NewSceneTracker(pub, cfg, logger)

		require.NoError(t, tracker.Remove(ctx, "ghost"))
		assert.Len(t, pub.published(), 1)
	})

	t.Run("feed removal of an unknown id is a no-op", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)

		tracker.HandleSnapshot(SceneSnapshot{
			Objects: []ObjectEvent{{Name: "ghost", Operation: SceneRemove}},
		})
		assert.Empty(t, tracker.KnownObjects())
	})

	t.Run("unconfirmed add times out with a reported stall", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		cfg.SceneSyncTimeout = 25 * time.Millisecond
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)

		err := tracker.AddCube(ctx, PieceObjectName, 0.015, boxPose("base_link"))
		assert.ErrorIs(t, err, ErrSceneSyncTimeout)
	})

	t.Run("canceled context interrupts the wait", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)

		waitCtx, cancel := context.WithTimeout(ctx, 15*time.Millisecond)
		defer cancel()
		err := tracker.AddCube(waitCtx, PieceObjectName, 0.015, boxPose("base_link"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("repeated adds converge to the same membership", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)
		snap := SceneSnapshot{Objects: []ObjectEvent{{Name: PieceObjectName, Operation: SceneAdd}}}

		tracker.HandleSnapshot(snap)
		require.NoError(t, tracker.AddCube(ctx, PieceObjectName, 0.015, boxPose("base_link")))
		tracker.HandleSnapshot(snap)
		require.NoError(t, tracker.AddCube(ctx, PieceObjectName, 0.015, boxPose("base_link")))

		assert.Equal(t, []string{PieceObjectName}, tracker.KnownObjects())
	})
}

func TestSceneTrackerSnapshots(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("attached set is replaced wholesale", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)

		tracker.HandleSnapshot(SceneSnapshot{Attached: []string{PieceObjectName, "mug"}})
		assert.ElementsMatch(t, []string{PieceObjectName, "mug"}, tracker.KnownAttachedObjects())

		tracker.HandleSnapshot(SceneSnapshot{Attached: []string{PieceObjectName}})
		assert.Equal(t, []string{PieceObjectName}, tracker.KnownAttachedObjects())

		tracker.HandleSnapshot(SceneSnapshot{})
		assert.Empty(t, tracker.KnownAttachedObjects())
		assert.False(t, tracker.HasAttachedObject(PieceObjectName))
	})

	t.Run("free set accumulates across snapshots", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)

		tracker.HandleSnapshot(SceneSnapshot{Objects: []ObjectEvent{{Name: TableObjectName, Operation: SceneAdd}}})
		tracker.HandleSnapshot(SceneSnapshot{Objects: []ObjectEvent{{Name: PieceObjectName, Operation: SceneAdd}}})
		assert.ElementsMatch(t, []string{TableObjectName, PieceObjectName}, tracker.KnownObjects())
	})

	t.Run("readers are safe against a concurrent feed", func(t *testing.T) {
		cfg := sceneTestConfig(t)
		tracker := NewSceneTracker(&recordingScene{}, cfg, logger)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 200; j++ {
					tracker.HandleSnapshot(SceneSnapshot{
						Objects:  []ObjectEvent{{Name: PieceObjectName, Operation: SceneAdd}},
						Attached: []string{TableObjectName},
					})
				}
			}()
		}
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 200; j++ {
					tracker.KnownObjects()
					tracker.KnownAttachedObjects()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, []string{PieceObjectName}, tracker.KnownObjects())
	})
}
