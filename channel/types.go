package channel

// Top-level TLV types on a channel. The high bit of the header byte is the
// parent flag, so the effective space is 0x00..0x7F. Unknown types are
// ignored at the role layer.
const (
	// Listener side
	TypeCallback        byte = 0x20 // unsolicited payload push
	TypeMetadataRequest byte = 0x21 // response-bearing request A
	TypeDataRequest     byte = 0x22 // response-bearing request B
	TypeChannelData     byte = 0x23 // fire-and-forget data toward the agent

	// Command side
	TypeResult        byte = 0x30
	TypeConfig        byte = 0x31
	TypeError         byte = 0x32
	TypeReturnSuccess byte = 0x33
	TypeReturnFailed  byte = 0x34
	TypeNewData       byte = 0x39
	TypeStop          byte = 0x3F
)

// Child types inside Listener requests and responses.
const (
	ChildSelector byte = 0x01 // command selector, single byte
	ChildSequence byte = 0x02 // sequence number, i32 little-endian
	ChildData     byte = 0x04 // opaque payload
)

// Child types inside a TypeConfig parent.
const (
	ChildOngoing  byte = 0x01 // 1-byte boolean
	ChildStopWait byte = 0x03 // i32 little-endian milliseconds
)
