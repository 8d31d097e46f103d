package sim

import "encoding/binary"

// RegisterFile is plain little-endian memory with optional per-register
// hooks, enough to check what a driver programs into a peripheral.
type RegisterFile struct {
	mem     []byte
	onWrite map[uint32]func(v uint32)
	onRead  map[uint32]func() uint32
	writes  []Access
}

// Access is one recorded register write.
type Access struct {
	Offset uint32
	Value  uint32
}

func NewRegisterFile(size uint32) *RegisterFile {
	return &RegisterFile{
		mem:     make([]byte, size),
		onWrite: make(map[uint32]func(uint32)),
		onRead:  make(map[uint32]func() uint32),
	}
}

// OnWrite calls fn after every 32-bit write to offset.
func (r *RegisterFile) OnWrite(offset uint32, fn func(v uint32)) {
	r.onWrite[offset] = fn
}

// OnRead makes 32-bit reads of offset return fn's result.
func (r *RegisterFile) OnRead(offset uint32, fn func() uint32) {
	r.onRead[offset] = fn
}

// Get returns the stored word at offset.
func (r *RegisterFile) Get(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(r.mem[offset:])
}

// Set stores a word at offset without running hooks or recording it.
func (r *RegisterFile) Set(offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(r.mem[offset:], v)
}

// Writes returns every write so far, in order.
func (r *RegisterFile) Writes() []Access {
	return r.writes
}

func (r *RegisterFile) Read(offset uint32, width int) uint32 {
	switch width {
	case 1:
		return uint32(r.mem[offset])
	case 2:
		return uint32(binary.LittleEndian.Uint16(r.mem[offset:]))
	}
	if fn, ok := r.onRead[offset]; ok {
		return fn()
	}
	return r.Get(offset)
}

func (r *RegisterFile) Write(offset uint32, width int, v uint32) {
	switch width {
	case 1:
		r.mem[offset] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(r.mem[offset:], uint16(v))
	default:
		r.Set(offset, v)
	}
	r.writes = append(r.writes, Access{Offset: offset, Value: v})
	if fn, ok := r.onWrite[offset]; ok && width == 4 {
		fn(v)
	}
}
