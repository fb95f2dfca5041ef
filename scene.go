package chess_arm

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
)

// Collision object names this package manages in the planning scene.
const (
	TableObjectName = "table"
	PieceObjectName = "piece"
)

// ErrSceneSyncTimeout reports that the planning-scene feed never confirmed an
// add or remove before the configured deadline.
var ErrSceneSyncTimeout = errors.New("planning scene update not confirmed before timeout")

// SceneOperation flags a collision-object command as an add or a remove.
type SceneOperation int8

const (
	SceneAdd SceneOperation = iota
	SceneRemove
)

// CollisionBox is a named axis-aligned box registered with the planning world.
type CollisionBox struct {
	Name string
	Dims r3.Vector
	Pose *referenceframe.PoseInFrame
}

// SceneCommand is one collision-object mutation published to the planner.
type SceneCommand struct {
	Operation SceneOperation
	Object    CollisionBox
}

// ScenePublisher delivers collision-object commands to the planning world.
type ScenePublisher interface {
	PublishCollisionObject(cmd SceneCommand) error
}

// ObjectEvent is one add/remove entry in a planning-scene snapshot.
type ObjectEvent struct {
	Name      string
	Operation SceneOperation
}

// SceneSnapshot is one update from the planning-scene feed: incremental
// events for free objects and the full current attached-object list.
type SceneSnapshot struct {
	Objects  []ObjectEvent
	Attached []string
}

// SceneTracker mirrors which collision objects the planning world currently
// knows about. Commands are published fire-and-forget; the authoritative
// state lives in the planner and flows back through HandleSnapshot on the
// feed goroutine, so AddBox/Remove poll membership until it converges.
type SceneTracker struct {
	pub    ScenePublisher
	cfg    *Config
	logger logging.Logger

	mu       sync.Mutex
	free     map[string]struct{}
	attached map[string]struct{}
}

func NewSceneTracker(pub ScenePublisher, cfg *Config, logger logging.Logger) *SceneTracker {
	return &SceneTracker{
		pub:      pub,
		cfg:      cfg,
		logger:   logger,
		free:     make(map[string]struct{}),
		attached: make(map[string]struct{}),
	}
}

// HandleSnapshot applies one feed update. Removal of an id we never saw is
// ignored; the attached set is replaced wholesale every time.
func (t *SceneTracker) HandleSnapshot(snap SceneSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ev := range snap.Objects {
		switch ev.Operation {
		case SceneAdd:
			t.free[ev.Name] = struct{}{}
			t.logger.Debugf("scene: added collision object %q", ev.Name)
		case SceneRemove:
			delete(t.free, ev.Name)
			t.logger.Debugf("scene: removed collision object %q", ev.Name)
		}
	}
	t.attached = make(map[string]struct{}, len(snap.Attached))
	for _, name := range snap.Attached {
		t.attached[name] = struct{}{}
	}
}

// KnownObjects returns a snapshot copy of the free-object names.
func (t *SceneTracker) KnownObjects() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.free))
	for name := range t.free {
		names = append(names, name)
	}
	return names
}

// KnownAttachedObjects returns a snapshot copy of the attached-object names.
func (t *SceneTracker) KnownAttachedObjects() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.attached))
	for name := range t.attached {
		names = append(names, name)
	}
	return names
}

// HasObject reports whether the free set currently contains name.
func (t *SceneTracker) HasObject(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.free[name]
	return ok
}

// HasAttachedObject reports whether the attached set currently contains name.
func (t *SceneTracker) HasAttachedObject(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.attached[name]
	return ok
}

// AddBox publishes a box collision object and blocks until the feed confirms
// it, re-publishing every poll interval. Times out with ErrSceneSyncTimeout.
func (t *SceneTracker) AddBox(ctx context.Context, name string, dims r3.Vector, pose *referenceframe.PoseInFrame) error {
	cmd := SceneCommand{
		Operation: SceneAdd,
		Object:    CollisionBox{Name: name, Dims: dims, Pose: pose},
	}
	return t.converge(ctx, cmd, func() bool { return t.HasObject(name) })
}

// AddCube publishes a cube of the given edge length.
func (t *SceneTracker) AddCube(ctx context.Context, name string, size float64, pose *referenceframe.PoseInFrame) error {
	return t.AddBox(ctx, name, r3.Vector{X: size, Y: size, Z: size}, pose)
}

// Remove publishes a removal and blocks until the feed no longer reports the
// object. Removing an object the world never had converges immediately.
func (t *SceneTracker) Remove(ctx context.Context, name string) error {
	cmd := SceneCommand{
		Operation: SceneRemove,
		Object:    CollisionBox{Name: name},
	}
	return t.converge(ctx, cmd, func() bool { return !t.HasObject(name) })
}

func (t *SceneTracker) converge(ctx context.Context, cmd SceneCommand, done func() bool) error {
	if err := t.pub.PublishCollisionObject(cmd); err != nil {
		return errors.Wrapf(err, "publishing collision object %q", cmd.Object.Name)
	}
	deadline := time.Now().Add(t.cfg.SceneSyncTimeout)
	for !done() {
		if time.Now().After(deadline) {
			return errors.Wrapf(ErrSceneSyncTimeout, "object %q", cmd.Object.Name)
		}
		t.logger.Debugf("scene: waiting for %q to sync", cmd.Object.Name)
		if !goutils.SelectContextOrWait(ctx, t.cfg.ScenePollInterval) {
			return ctx.Err()
		}
		// Re-publish each tick; command messages can be lost.
		if err := t.pub.PublishCollisionObject(cmd); err != nil {
			return errors.Wrapf(err, "publishing collision object %q", cmd.Object.Name)
		}
	}
	return nil
}
