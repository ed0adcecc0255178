package protocol

import (
	"encoding/json"
	"fmt"

	"ssh-vanity/internal/domain"
)

// wire is the flat JSON shape shared by every message.
type wire struct {
	Type          Type              `json:"type"`
	Config        *domain.JobConfig `json:"config,omitempty"`
	BatchSize     *int              `json:"batchSize,omitempty"`
	KeysGenerated *int              `json:"keysGenerated,omitempty"`
	Data          *domain.KeyPair   `json:"data,omitempty"`
	Error         *string           `json:"error,omitempty"`
}

// Encode renders msg as {"type": ..., ...}.
func Encode(msg Message) ([]byte, error) {
	w := wire{}
	switch m := msg.(type) {
	case Init:
		cfg := m.Config
		w.Config = &cfg
		w.BatchSize = &m.BatchSize
	case Progress:
		w.KeysGenerated = &m.KeysGenerated
	case Found:
		data := m.Data
		w.Data = &data
	case Error:
		w.Error = &m.Error
	case Start, Stop, Reset, Initialised, Stopped:
	default:
		return nil, Unexpected(msg)
	}
	w.Type = msg.MessageType()
	return json.Marshal(w)
}

// Decode parses one message. Unknown tags yield a *ProtocolError.
func Decode(data []byte) (Message, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	switch w.Type {
	case TypeInit:
		m := Init{}
		if w.Config != nil {
			m.Config = *w.Config
		}
		if w.BatchSize != nil {
			m.BatchSize = *w.BatchSize
		}
		return m, nil
	case TypeStart:
		return Start{}, nil
	case TypeStop:
		return Stop{}, nil
	case TypeReset:
		return Reset{}, nil
	case TypeInitialised:
		return Initialised{}, nil
	case TypeProgress:
		m := Progress{}
		if w.KeysGenerated != nil {
			m.KeysGenerated = *w.KeysGenerated
		}
		return m, nil
	case TypeFound:
		if w.Data == nil {
			return nil, fmt.Errorf("decode message: found without data")
		}
		return Found{Data: *w.Data}, nil
	case TypeError:
		m := Error{}
		if w.Error != nil {
			m.Error = *w.Error
		}
		return m, nil
	case TypeStopped:
		return Stopped{}, nil
	default:
		return nil, &ProtocolError{Type: w.Type}
	}
}
