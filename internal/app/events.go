package app

// Inbound event names.
const (
	EventJoinRoom         = "join-room"
	EventLeaveRoom        = "leave-room"
	EventFileCreated      = "file-created"
	EventDirectoryCreated = "directory-created"
	EventFileUpdated      = "file-updated"
	EventFileDeleted      = "file-deleted"
	EventDirectoryDeleted = "directory-deleted"
	EventRequestPerm      = "request-permission"
	EventGrantPerm        = "grant-permission"
	EventRevokePerm       = "revoke-permission"
	EventTypingStart      = "typing-start"
	EventTypingPause      = "typing-pause"
	EventCursorMove       = "cursor-move"
	EventSendMessage      = "send-message"
	EventDrawingRequest   = "drawing-request"
	EventDrawingSync      = "drawing-sync"
	EventDrawingUpdate    = "drawing-update"
	EventPing             = "ping"
	EventWhoAmI           = "whoami"
)

// Outbound event names. typing-start, typing-pause and drawing-sync keep
// their inbound names.
const (
	EventAck              = "ack"
	EventPong             = "pong"
	EventError            = "error"
	EventUserJoined       = "user-joined"
	EventUserLeft         = "user-left"
	EventUserDisconnected = "user-disconnected"
	EventUsernameTaken    = "username-taken"
	EventResourceCreated  = "resource-created"
	EventResourceUpdated  = "resource-updated"
	EventResourceDeleted  = "resource-deleted"
	EventPermRequested    = "permission-requested"
	EventPermUpdated      = "permission-updated"
	EventPermRevoked      = "permission-revoked"
	EventPermDenied       = "permission-denied"
	EventCursorMoved      = "cursor-moved"
	EventMessageReceived  = "message-received"
	EventDrawingRequested = "drawing-requested"
	EventDrawingUpdated   = "drawing-updated"
)
