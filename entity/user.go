package entity

// User is a player known to the game, the chat, or both.
type User struct {
	ID       uint16
	Position Vector
	InGame   bool
	InChat   bool
}

// Paired reports whether the user is present both in game and in chat.
// Only paired users are positioned.
func (u User) Paired() bool {
	return u.InGame && u.InChat
}

// Exists reports whether the user is known to either side.
func (u User) Exists() bool {
	return u.InGame || u.InChat
}

// Camera is the game camera in world space.
type Camera struct {
	Position  Vector
	Direction Vector
}

// Valid reports whether both camera vectors have been received.
func (c Camera) Valid() bool {
	return !c.Position.IsZero() && !c.Direction.IsZero()
}
