package packet

// Client -> match opcodes.
const (
	C_OPCODE_HANDSHAKE_REPLY  byte = 1
	C_OPCODE_ECHO             byte = 2
	C_OPCODE_SET_MOVE_ORDER   byte = 3
	C_OPCODE_SET_FIRE_TARGET  byte = 4
	C_OPCODE_LAUNCH_TORPEDOES byte = 5
	C_OPCODE_USE_SMOKE        byte = 6
	C_OPCODE_CLIENT_LEFT      byte = 7 // generated by the lobby host, never by a client
)

// Client -> lobby opcodes.
const (
	C_OPCODE_LOBBY_HELLO byte = 32
	C_OPCODE_SET_READY   byte = 33
)

// Match -> client opcodes.
const (
	S_OPCODE_HANDSHAKE_A        byte = 64
	S_OPCODE_HANDSHAKE_B        byte = 65
	S_OPCODE_PRINT_MSG          byte = 66
	S_OPCODE_SPAWN_SHIP         byte = 67
	S_OPCODE_SPAWN_BULLET       byte = 68
	S_OPCODE_SPAWN_TORPEDO      byte = 69
	S_OPCODE_SPAWN_SMOKE_PUFF   byte = 70
	S_OPCODE_DESTROY_ENTITY     byte = 71
	S_OPCODE_SET_TRANSFORM      byte = 72
	S_OPCODE_SET_VELOCITY       byte = 73
	S_OPCODE_SET_TURRET_DIRS    byte = 74
	S_OPCODE_SET_HEALTH         byte = 75
	S_OPCODE_SET_MOVE_ORDER     byte = 76
	S_OPCODE_SET_RELOADED_TORPS byte = 77
	S_OPCODE_SET_SMOKE_STATE    byte = 78
	S_OPCODE_SET_DETECTION      byte = 79
)

// Lobby -> client opcodes.
const (
	S_OPCODE_LOBBY_WELCOME byte = 96
	S_OPCODE_CLIENT_JOINED byte = 97
	S_OPCODE_CLIENT_LEFT   byte = 98
	S_OPCODE_MATCH_JOINED  byte = 99
	S_OPCODE_MATCH_ENDED   byte = 100
)

var opcodeNames = map[byte]string{
	C_OPCODE_HANDSHAKE_REPLY:    "C_HANDSHAKE_REPLY",
	C_OPCODE_ECHO:               "C_ECHO",
	C_OPCODE_SET_MOVE_ORDER:     "C_SET_MOVE_ORDER",
	C_OPCODE_SET_FIRE_TARGET:    "C_SET_FIRE_TARGET",
	C_OPCODE_LAUNCH_TORPEDOES:   "C_LAUNCH_TORPEDOES",
	C_OPCODE_USE_SMOKE:          "C_USE_SMOKE",
	C_OPCODE_CLIENT_LEFT:        "C_CLIENT_LEFT",
	C_OPCODE_LOBBY_HELLO:        "C_LOBBY_HELLO",
	C_OPCODE_SET_READY:          "C_SET_READY",
	S_OPCODE_HANDSHAKE_A:        "S_HANDSHAKE_A",
	S_OPCODE_HANDSHAKE_B:        "S_HANDSHAKE_B",
	S_OPCODE_PRINT_MSG:          "S_PRINT_MSG",
	S_OPCODE_SPAWN_SHIP:         "S_SPAWN_SHIP",
	S_OPCODE_SPAWN_BULLET:       "S_SPAWN_BULLET",
	S_OPCODE_SPAWN_TORPEDO:      "S_SPAWN_TORPEDO",
	S_OPCODE_SPAWN_SMOKE_PUFF:   "S_SPAWN_SMOKE_PUFF",
	S_OPCODE_DESTROY_ENTITY:     "S_DESTROY_ENTITY",
	S_OPCODE_SET_TRANSFORM:      "S_SET_TRANSFORM",
	S_OPCODE_SET_VELOCITY:       "S_SET_VELOCITY",
	S_OPCODE_SET_TURRET_DIRS:    "S_SET_TURRET_DIRS",
	S_OPCODE_SET_HEALTH:         "S_SET_HEALTH",
	S_OPCODE_SET_MOVE_ORDER:     "S_SET_MOVE_ORDER",
	S_OPCODE_SET_RELOADED_TORPS: "S_SET_RELOADED_TORPS",
	S_OPCODE_SET_SMOKE_STATE:    "S_SET_SMOKE_STATE",
	S_OPCODE_SET_DETECTION:      "S_SET_DETECTION",
	S_OPCODE_LOBBY_WELCOME:      "S_LOBBY_WELCOME",
	S_OPCODE_CLIENT_JOINED:      "S_CLIENT_JOINED",
	S_OPCODE_CLIENT_LEFT:        "S_CLIENT_LEFT",
	S_OPCODE_MATCH_JOINED:       "S_MATCH_JOINED",
	S_OPCODE_MATCH_ENDED:        "S_MATCH_ENDED",
}

// OpcodeName returns a printable name for log output.
func OpcodeName(op byte) string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}
