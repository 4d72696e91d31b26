package gamedata

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/tessumod/tsplugin/entity"
)

// Record layout sizes in bytes.
const (
	headerSize = 4 + 3*4 + 3*4 + 1
	clientSize = 2 + 3*4

	// MaxClients is the largest client count a record holds.
	MaxClients = math.MaxUint8
)

// Record is one snapshot the game publishes: a Unix timestamp in seconds,
// the camera and every player's world position keyed by voice-chat
// client id.
type Record struct {
	Timestamp       uint32
	CameraPosition  entity.Vector
	CameraDirection entity.Vector
	Clients         map[uint16]entity.Vector
}

// ParseRecord decodes a little-endian record. Bytes after the last client
// are ignored.
func ParseRecord(data []byte) (Record, error) {
	if len(data) < headerSize {
		return Record{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrShortRecord, len(data), headerSize)
	}

	rec := Record{Timestamp: binary.LittleEndian.Uint32(data)}
	rec.CameraPosition = readVector(data[4:])
	rec.CameraDirection = readVector(data[16:])
	count := int(data[28])

	body := data[headerSize:]
	if len(body) < count*clientSize {
		return Record{}, fmt.Errorf("%w: %d clients need %d bytes, have %d", ErrShortRecord, count, count*clientSize, len(body))
	}
	rec.Clients = make(map[uint16]entity.Vector, count)
	for i := 0; i < count; i++ {
		c := body[i*clientSize:]
		rec.Clients[binary.LittleEndian.Uint16(c)] = readVector(c[2:])
	}
	return rec, nil
}

// MarshalBinary encodes the record in the layout ParseRecord reads, with
// clients in ascending id order.
func (r Record) MarshalBinary() ([]byte, error) {
	if len(r.Clients) > MaxClients {
		return nil, fmt.Errorf("%w: %d", ErrTooManyClients, len(r.Clients))
	}

	out := make([]byte, 0, headerSize+len(r.Clients)*clientSize)
	out = binary.LittleEndian.AppendUint32(out, r.Timestamp)
	out = appendVector(out, r.CameraPosition)
	out = appendVector(out, r.CameraDirection)
	out = append(out, byte(len(r.Clients)))
	for _, id := range sortedIDs(r.Clients) {
		out = binary.LittleEndian.AppendUint16(out, id)
		out = appendVector(out, r.Clients[id])
	}
	return out, nil
}

func readVector(b []byte) entity.Vector {
	return entity.Vector{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}
}

func appendVector(b []byte, v entity.Vector) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v.X)))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v.Y)))
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v.Z)))
}

func sortedIDs(clients map[uint16]entity.Vector) []uint16 {
	ids := make([]uint16, 0, len(clients))
	for id := range clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
