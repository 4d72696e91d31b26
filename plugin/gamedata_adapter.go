package plugin

import (
	"sync"

	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/gamedata"
)

// GameDataAdapter forwards game data changes to the use cases. The camera
// is forwarded only once both its position and direction are non-zero.
type GameDataAdapter struct {
	mu     sync.Mutex
	events GameEvents
	camera entity.Camera
}

// NewGameDataAdapter creates an adapter delivering to events.
func NewGameDataAdapter(events GameEvents) *GameDataAdapter {
	return &GameDataAdapter{events: events}
}

func (a *GameDataAdapter) UserAdded(id uint16) {
	a.events.AddGameUser(id)
}

func (a *GameDataAdapter) UserRemoved(id uint16) {
	a.events.RemoveGameUser(id)
}

func (a *GameDataAdapter) UserPositionChanged(id uint16, position entity.Vector) {
	a.events.PositionUser(id, position)
}

func (a *GameDataAdapter) CameraPositionChanged(position entity.Vector) {
	a.mu.Lock()
	a.camera.Position = position
	camera := a.camera
	a.mu.Unlock()

	if camera.Valid() {
		a.events.PositionCamera(camera.Position, camera.Direction)
	}
}

func (a *GameDataAdapter) CameraDirectionChanged(direction entity.Vector) {
	a.mu.Lock()
	a.camera.Direction = direction
	camera := a.camera
	a.mu.Unlock()

	if camera.Valid() {
		a.events.PositionCamera(camera.Position, camera.Direction)
	}
}

var _ gamedata.Handler = (*GameDataAdapter)(nil)
