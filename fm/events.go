package fm

// EventKind distinguishes note events delivered to the engine.
type EventKind int

const (
	NoteOnEvent EventKind = iota
	NoteOffEvent
)

// NoteEvent is one timestamped note transition within a render block.
// Offset is the sample index inside the block at which the event applies;
// events passed to Process must be ordered by Offset.
type NoteEvent struct {
	Kind     EventKind
	Note     int     // MIDI note number, clamped to 0..127 on use
	Velocity float32 // [0,1], clamped on use
	Offset   int     // sample offset within the current block
}

// NoteOn builds an on event at the start of the block.
func NoteOn(note int, velocity float32) NoteEvent {
	return NoteEvent{Kind: NoteOnEvent, Note: note, Velocity: velocity}
}

// NoteOff builds an off event at the start of the block.
func NoteOff(note int) NoteEvent {
	return NoteEvent{Kind: NoteOffEvent, Note: note}
}
