package shared

// Side identifies one of the two participants of a match: the human
// player or the scripted opponent. It is used consistently as a map key
// and a comparison value; there is no third variant.
type Side string

const (
	SidePlayer   Side = "player"
	SideOpponent Side = "opponent"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

// Valid reports whether s is one of the two known sides. Persisted
// sessions carry sides as plain strings, so restore paths check this.
func (s Side) Valid() bool {
	return s == SidePlayer || s == SideOpponent
}
