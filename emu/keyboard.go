package emu

// keyboardRows is the number of rows in the MSX keyboard matrix.
const keyboardRows = 11

// noKey marks an unassigned special key. Its row is never scanned.
const noKey = 0xFF

// matrixKey is a position in the keyboard matrix.
type matrixKey struct {
	row uint8
	col uint8
}

var disabledKey = matrixKey{row: noKey}

// Main keyboard rows of the international MSX layout. Letters are
// matched case-insensitively.
var mainKeys = map[byte]matrixKey{
	'0': {0, 0}, '1': {0, 1}, '2': {0, 2}, '3': {0, 3},
	'4': {0, 4}, '5': {0, 5}, '6': {0, 6}, '7': {0, 7},
	'8': {1, 0}, '9': {1, 1}, '-': {1, 2}, '=': {1, 3},
	'\\': {1, 4}, '[': {1, 5}, ']': {1, 6}, ';': {1, 7},
	'\'': {2, 0}, '`': {2, 1}, ',': {2, 2}, '.': {2, 3},
	'/': {2, 4},

	' ':  {8, 0},
	'\r': {7, 7},
	'\n': {7, 7},
	'\t': {7, 3},
	0x08: {7, 5}, // BS
	0x1B: {7, 2}, // ESC
	0x7F: {8, 3}, // DEL
}

// tenKeys is the numeric keypad, rows 9 and 10.
var tenKeys = map[byte]matrixKey{
	'*': {9, 0}, '+': {9, 1}, '/': {9, 2}, '0': {9, 3},
	'1': {9, 4}, '2': {9, 5}, '3': {9, 6}, '4': {9, 7},
	'5': {10, 0}, '6': {10, 1}, '7': {10, 2}, '8': {10, 3},
	'9': {10, 4}, '-': {10, 5}, ',': {10, 6}, '.': {10, 7},
}

// lookupKey returns the matrix position of an ASCII character. When
// tenKey is set the numeric keypad is searched instead of the main
// keyboard.
func lookupKey(ascii byte, tenKey bool) (matrixKey, bool) {
	if tenKey {
		k, ok := tenKeys[ascii]
		return k, ok
	}

	if ascii >= 'a' && ascii <= 'z' {
		ascii -= 'a' - 'A'
	}
	if ascii >= 'A' && ascii <= 'Z' {
		// A and B end row 2; C onwards fill rows 3-5
		n := int(ascii-'A') + 6
		return matrixKey{row: uint8(2 + n/8), col: uint8(n % 8)}, true
	}

	k, ok := mainKeys[ascii]
	return k, ok
}

// SetupSpecialKey1 assigns the key pressed by the first special button
// (PadSpecial1) on MSX. Characters with no matrix position disable it.
func (e *Emulator) SetupSpecialKey1(ascii byte, tenKey bool) {
	e.io.setSpecialKey(0, ascii, tenKey)
}

// SetupSpecialKey2 assigns the key pressed by the second special button
// (PadSpecial2) on MSX.
func (e *Emulator) SetupSpecialKey2(ascii byte, tenKey bool) {
	e.io.setSpecialKey(1, ascii, tenKey)
}

func (io *IO) setSpecialKey(n int, ascii byte, tenKey bool) {
	k, ok := lookupKey(ascii, tenKey)
	if !ok {
		k = disabledKey
	}
	io.special[n] = k
}

// keyboardRow returns the state of the matrix row selected by PPI port
// C, active low. Only the special keys can be held.
func (io *IO) keyboardRow() uint8 {
	row := io.portC & 0x0F
	if row >= keyboardRows {
		return 0xFF
	}

	held := io.pad[0] | io.pad[1]
	val := uint8(0xFF)
	for n, k := range io.special {
		if held&(PadSpecial1<<uint(n)) == 0 || k.row != row {
			continue
		}
		val &^= 1 << k.col
	}
	return val
}
