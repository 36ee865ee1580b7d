package board

import "strings"

// Coordinate identifies one cell of the 8x8 matrix.
// column = value % 8, row = value / 8.
type Coordinate uint8

const (
	// Size is the number of rows and columns.
	Size = 8
	// Cells is the total number of cells.
	Cells = Size * Size

	// CoordinateOffset shifts coordinates into the printable range
	// below all control codes on the link.
	CoordinateOffset byte = 33
	// MaxCoordinateByte is the largest encoded coordinate.
	MaxCoordinateByte = CoordinateOffset + Cells - 1
)

// At builds a coordinate from row and column.
func At(row, column int) Coordinate {
	return Coordinate(row*Size + column)
}

// Valid checks the coordinate is inside the matrix.
func (c Coordinate) Valid() bool {
	return c < Cells
}

// Column returns the column index (0 = file a).
func (c Coordinate) Column() int {
	return int(c) % Size
}

// Row returns the row index (0 = rank 1).
func (c Coordinate) Row() int {
	return int(c) / Size
}

// ColumnMask is the display column bit, column a is the leftmost bit.
func (c Coordinate) ColumnMask() uint8 {
	return 1 << uint(7-c.Column())
}

// RowMask is the display row bit, rank 1 is the leftmost bit.
func (c Coordinate) RowMask() uint8 {
	return 1 << uint(7-c.Row())
}

// Encode converts the coordinate into a link data byte.
func (c Coordinate) Encode() byte {
	return byte(c) + CoordinateOffset
}

// DecodeCoordinate converts a link data byte back to a coordinate.
func DecodeCoordinate(b byte) (Coordinate, error) {
	if b < CoordinateOffset || b > MaxCoordinateByte {
		return 0, &ByteError{Byte: b}
	}
	return Coordinate(b - CoordinateOffset), nil
}

// IsCoordinateByte tells whether b lies in the encoded coordinate range.
func IsCoordinateByte(b byte) bool {
	return b >= CoordinateOffset && b <= MaxCoordinateByte
}

// String formats the coordinate in algebraic notation, e.g. "e2".
func (c Coordinate) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{'a' + byte(c.Column()), '1' + byte(c.Row())})
}

// ParseCoordinate parses algebraic notation ("e2") or a plain index ("12").
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8' {
		return At(int(s[1]-'1'), int(s[0]-'a')), nil
	}
	if len(s) == 0 || len(s) > 2 {
		return 0, ErrBadNotation
	}
	var n int
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, ErrBadNotation
		}
		n = n*10 + int(ch-'0')
	}
	if n >= Cells {
		return 0, ErrOutOfRange
	}
	return Coordinate(n), nil
}
