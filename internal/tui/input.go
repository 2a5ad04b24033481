package tui

import (
	"bufio"
	"io"
	"unicode/utf8"

	"github.com/thruflo/sortvis/internal/engine"
)

// Key represents a keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
	KeyCtrlD
	KeyRune // Regular character
)

// KeyEvent represents a key press event.
type KeyEvent struct {
	Key  Key
	Rune rune // Only valid when Key == KeyRune
}

// KeyReader reads keyboard input from a raw terminal.
type KeyReader struct {
	reader *bufio.Reader
}

// NewKeyReader creates a KeyReader from the given io.Reader.
// The reader should be a raw terminal input (e.g., os.Stdin after term.MakeRaw).
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{
		reader: bufio.NewReaderSize(r, 64),
	}
}

// ReadKey blocks until a key is pressed and returns it.
func (k *KeyReader) ReadKey() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}

	switch b {
	case 0x03:
		return KeyEvent{Key: KeyCtrlC}, nil
	case 0x04:
		return KeyEvent{Key: KeyCtrlD}, nil
	case 0x09:
		return KeyEvent{Key: KeyTab}, nil
	case 0x0D, 0x0A:
		return KeyEvent{Key: KeyEnter}, nil
	case 0x1B:
		return k.readEscapeSequence(), nil
	}

	if b >= 0x20 && b < 0x7F {
		return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
	}
	if b >= 0xC0 {
		return k.readUTF8(b)
	}
	return KeyEvent{Key: KeyUnknown}, nil
}

// readEscapeSequence decodes the arrow keys and shift+tab. A lone escape
// is only recognised when no further bytes are buffered.
func (k *KeyReader) readEscapeSequence() KeyEvent {
	if k.reader.Buffered() == 0 {
		return KeyEvent{Key: KeyEscape}
	}

	prefix, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEscape}
	}
	if prefix != '[' && prefix != 'O' {
		_ = k.reader.UnreadByte()
		return KeyEvent{Key: KeyEscape}
	}

	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEscape}
	}
	switch b {
	case 'A':
		return KeyEvent{Key: KeyUp}
	case 'B':
		return KeyEvent{Key: KeyDown}
	case 'C':
		return KeyEvent{Key: KeyRight}
	case 'D':
		return KeyEvent{Key: KeyLeft}
	case 'Z':
		return KeyEvent{Key: KeyBackTab}
	}

	// Consume the rest of an unknown sequence up to its final byte.
	for next := b; k.reader.Buffered() > 0; {
		if (next >= 'A' && next <= 'Z') || (next >= 'a' && next <= 'z') || next == '~' {
			break
		}
		next, _ = k.reader.ReadByte()
	}
	return KeyEvent{Key: KeyUnknown}
}

func (k *KeyReader) readUTF8(first byte) (KeyEvent, error) {
	var n int
	switch {
	case first&0xE0 == 0xC0:
		n = 2
	case first&0xF0 == 0xE0:
		n = 3
	case first&0xF8 == 0xF0:
		n = 4
	default:
		return KeyEvent{Key: KeyUnknown}, nil
	}

	buf := make([]byte, n)
	buf[0] = first
	if _, err := io.ReadFull(k.reader, buf[1:]); err != nil {
		return KeyEvent{Key: KeyUnknown}, err
	}

	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return KeyEvent{Key: KeyUnknown}, nil
	}
	return KeyEvent{Key: KeyRune, Rune: r}, nil
}

// Action is what a key press asks the app to do.
type Action int

const (
	ActionNone Action = iota
	ActionSelect        // 1-5: pick an algorithm
	ActionNextAlgorithm // tab, right, down
	ActionPrevAlgorithm // shift+tab, left, up
	ActionSort          // s, enter
	ActionReset         // r
	ActionCancel        // c, esc
	ActionQuit          // q, ctrl+c, ctrl+d
)

// Command is a parsed key press. Algorithm is set for ActionSelect.
type Command struct {
	Action    Action
	Algorithm engine.Algorithm
}

// ParseKey maps a key press to a Command.
func ParseKey(ev KeyEvent) Command {
	switch ev.Key {
	case KeyCtrlC, KeyCtrlD:
		return Command{Action: ActionQuit}
	case KeyEscape:
		return Command{Action: ActionCancel}
	case KeyEnter:
		return Command{Action: ActionSort}
	case KeyTab, KeyRight, KeyDown:
		return Command{Action: ActionNextAlgorithm}
	case KeyBackTab, KeyLeft, KeyUp:
		return Command{Action: ActionPrevAlgorithm}
	case KeyRune:
		return parseRune(ev.Rune)
	}
	return Command{Action: ActionNone}
}

func parseRune(r rune) Command {
	if r >= '1' && r <= '9' {
		alg := engine.Algorithm(r - '1')
		if alg.Valid() {
			return Command{Action: ActionSelect, Algorithm: alg}
		}
		return Command{Action: ActionNone}
	}
	switch r {
	case 's', 'S':
		return Command{Action: ActionSort}
	case 'r', 'R':
		return Command{Action: ActionReset}
	case 'c', 'C':
		return Command{Action: ActionCancel}
	case 'q', 'Q':
		return Command{Action: ActionQuit}
	}
	return Command{Action: ActionNone}
}
