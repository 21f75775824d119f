package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a backend buffer at a given byte offset.
type BufferWrite struct {
	Buffer any
	Offset uint64
	Data   []byte
}
