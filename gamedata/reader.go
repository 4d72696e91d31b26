package gamedata

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessumod/tsplugin/entity"
)

// LivenessLimit is how old a record may be before it counts as cleared.
const LivenessLimit = 5 * time.Second

// Handler receives the changes between consecutive records.
type Handler interface {
	CameraPositionChanged(position entity.Vector)
	CameraDirectionChanged(direction entity.Vector)
	UserAdded(id uint16)
	UserPositionChanged(id uint16, position entity.Vector)
	UserRemoved(id uint16)
}

// Reader turns successive records into change events.
type Reader struct {
	mu           sync.Mutex
	handler      Handler
	timeProvider TimeProvider
	previous     Record
}

// NewReader creates a reader delivering to handler. A nil tp uses the
// package default.
func NewReader(handler Handler, tp TimeProvider) *Reader {
	return &Reader{
		handler:      handler,
		timeProvider: getTimeProvider(tp),
		previous:     Record{Clients: map[uint16]entity.Vector{}},
	}
}

// Update compares rec with the previous record and emits, in order:
// camera position, camera direction, added and moved clients, removed
// clients. A record older than LivenessLimit is treated as empty.
func (r *Reader) Update(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	age := r.timeProvider.Now().Unix() - int64(rec.Timestamp)
	if age > int64(LivenessLimit/time.Second) {
		if len(r.previous.Clients) > 0 {
			logrus.WithFields(logrus.Fields{
				"function":  "Reader.Update",
				"timestamp": rec.Timestamp,
				"age_sec":   age,
			}).Debug("Game data is stale, clearing positions")
		}
		rec = Record{Timestamp: rec.Timestamp}
	}
	if rec.Clients == nil {
		rec.Clients = map[uint16]entity.Vector{}
	}

	prev := r.previous
	if !rec.CameraPosition.Equal(prev.CameraPosition) {
		r.handler.CameraPositionChanged(rec.CameraPosition)
	}
	if !rec.CameraDirection.Equal(prev.CameraDirection) {
		r.handler.CameraDirectionChanged(rec.CameraDirection)
	}
	for _, id := range sortedIDs(rec.Clients) {
		position := rec.Clients[id]
		old, known := prev.Clients[id]
		switch {
		case !known:
			r.handler.UserAdded(id)
			r.handler.UserPositionChanged(id, position)
		case !old.Equal(position):
			r.handler.UserPositionChanged(id, position)
		}
	}
	for _, id := range sortedIDs(prev.Clients) {
		if _, ok := rec.Clients[id]; !ok {
			r.handler.UserRemoved(id)
		}
	}

	r.previous = rec
}

// Reset emits the changes towards an empty record, removing every known
// client.
func (r *Reader) Reset() {
	r.Update(Record{})
}
