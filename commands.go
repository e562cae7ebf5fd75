package dukelink

// Commands sent by clients.
const (
	// CmdRoom joins (or lazily creates) a room by name.
	CmdRoom = "room"
	// CmdUID requests the server-assigned identity token.
	CmdUID = "uid"
	// CmdName sets the display name.
	CmdName = "name"
	// CmdGetRooms requests the room listing.
	CmdGetRooms = "get_rooms"
	// CmdExitRoom leaves the current room.
	CmdExitRoom = "exit_room"
	// CmdAll broadcasts a chat line to every other client.
	CmdAll = "a"
	// CmdWhisper sends a private line to a client by id or name.
	CmdWhisper = "w"

	// Match relay commands, forwarded verbatim to the other seat.
	CmdPositions     = "positions"
	CmdMove          = "move"
	CmdSpawnOpponent = "spawn_opponent"
	// CmdReady is the host's turn-start trigger.
	CmdReady = "ready"
	// CmdLost is the sender's assertion that it lost the match.
	CmdLost = "lost"
)

// Commands sent by the server.
const (
	// CmdRooms carries comma-separated "name count/max" entries.
	CmdRooms = "rooms"
	// CmdInfo carries a user-visible notification.
	CmdInfo = "info"
	// CmdRoomReady signals that both seats of the room are filled.
	CmdRoomReady = "room_ready"
	// CmdRelay carries a public chat line from another client.
	CmdRelay = "relay"
	// CmdWon reports the match outcome to the seat that did not assert loss.
	CmdWon = "won"
)

// Standard error messages
const (
	// Protocol errors
	ErrInvalidMessageFormat = "invalid message format"
	ErrUnknownCommand       = "unknown command"

	// Connection errors
	ErrClientNotFound       = "client not found"
	ErrConnectionClosed     = "client connection is closed"
	ErrContextCancelled     = "client context cancelled"
	ErrFailedToEncode       = "failed to encode message"
	ErrSendQueueFull        = "client send queue is full"
	ErrServerAlreadyRunning = "server already running"
)

// Informational replies sent through the info command.
const (
	InfoRoomFull      = "room is full"
	InfoAlreadyInRoom = "you are already in this room"
)
