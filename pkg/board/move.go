package board

// Move is the pair of squares entered on one board and shown on the other.
type Move struct {
	From Coordinate
	To   Coordinate
}

// Valid checks both squares.
func (m Move) Valid() bool {
	return m.From.Valid() && m.To.Valid()
}

// Bytes encodes the move as the two link data bytes.
func (m Move) Bytes() [2]byte {
	return [2]byte{m.From.Encode(), m.To.Encode()}
}

// String formats the move as "e2e4".
func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// IsSameSquare tells the same key was pressed twice.
func (m Move) IsSameSquare() bool {
	return m.From == m.To
}

// IsResignGesture is the same square pressed twice on a back rank.
func (m Move) IsResignGesture() bool {
	row := m.From.Row()
	return m.IsSameSquare() && (row == 0 || row == Size-1)
}

// IsDrawGesture is the same square pressed twice on a pawn rank.
func (m Move) IsDrawGesture() bool {
	row := m.From.Row()
	return m.IsSameSquare() && (row == 1 || row == Size-2)
}

// ParseMove parses "e2e4" or "e2 e4".
func ParseMove(s string) (m Move, err error) {
	var from, to string
	switch {
	case len(s) == 4:
		from, to = s[:2], s[2:]
	case len(s) == 5 && s[2] == ' ':
		from, to = s[:2], s[3:]
	default:
		return m, ErrBadNotation
	}
	if m.From, err = ParseCoordinate(from); err != nil {
		return
	}
	m.To, err = ParseCoordinate(to)
	return
}
