// Package protocol defines the messages exchanged between the search
// coordinator and its workers.
package protocol

import (
	"fmt"

	"ssh-vanity/internal/domain"
)

// Type is the wire tag of a message.
type Type string

const (
	TypeInit        Type = "init"
	TypeStart       Type = "start"
	TypeStop        Type = "stop"
	TypeReset       Type = "reset"
	TypeInitialised Type = "initialised"
	TypeProgress    Type = "progress"
	TypeFound       Type = "found"
	TypeError       Type = "error"
	TypeStopped     Type = "stopped"
)

// Message is implemented by every protocol message. The set is closed.
type Message interface {
	MessageType() Type
	sealed()
}

// Command is a coordinator → worker message.
type Command interface {
	Message
	command()
}

// Event is a worker → coordinator message.
type Event interface {
	Message
	event()
}

// Init asks a worker to build its engine.
type Init struct {
	Config    domain.JobConfig `json:"config"`
	BatchSize int              `json:"batchSize"`
}

// Start asks an initialised worker to begin its batch loop.
type Start struct{}

// Stop asks a worker to cancel its loop.
type Stop struct{}

// Reset asks a worker to stop and drop its engine.
type Reset struct{}

// Initialised confirms Init.
type Initialised struct{}

// Progress reports one completed batch without a match.
type Progress struct {
	KeysGenerated int `json:"keysGenerated"`
}

// Found carries the matching key pair.
type Found struct {
	Data domain.KeyPair `json:"data"`
}

// Error reports a worker-side failure.
type Error struct {
	Error string `json:"error"`
}

// Stopped confirms Stop or Reset.
type Stopped struct{}

func (Init) MessageType() Type        { return TypeInit }
func (Start) MessageType() Type       { return TypeStart }
func (Stop) MessageType() Type        { return TypeStop }
func (Reset) MessageType() Type       { return TypeReset }
func (Initialised) MessageType() Type { return TypeInitialised }
func (Progress) MessageType() Type    { return TypeProgress }
func (Found) MessageType() Type       { return TypeFound }
func (Error) MessageType() Type       { return TypeError }
func (Stopped) MessageType() Type     { return TypeStopped }

func (Init) sealed()        {}
func (Start) sealed()       {}
func (Stop) sealed()        {}
func (Reset) sealed()       {}
func (Initialised) sealed() {}
func (Progress) sealed()    {}
func (Found) sealed()       {}
func (Error) sealed()       {}
func (Stopped) sealed()     {}

func (Init) command()  {}
func (Start) command() {}
func (Stop) command()  {}
func (Reset) command() {}

func (Initialised) event() {}
func (Progress) event()    {}
func (Found) event()       {}
func (Error) event()       {}
func (Stopped) event()     {}

// ProtocolError reports a message the receiver does not understand.
type ProtocolError struct {
	Type Type
}

// Error names the offending tag.
func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Type == "" {
		return "unknown message type"
	}
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// Unexpected builds a ProtocolError for a message that arrived on the wrong side.
func Unexpected(msg Message) *ProtocolError {
	if msg == nil {
		return &ProtocolError{}
	}
	return &ProtocolError{Type: msg.MessageType()}
}

// ErrorEvent converts err into an Error event.
func ErrorEvent(err error) Error {
	return Error{Error: err.Error()}
}
