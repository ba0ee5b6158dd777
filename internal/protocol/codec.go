package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage  = errors.New("empty message")
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrTrailingBytes = errors.New("trailing bytes after message")
)

var factories = map[Opcode]func() Message{
	OpCSNewAccount:         func() Message { return &CSNewAccount{} },
	OpCSLoadAccount:        func() Message { return &CSLoadAccount{} },
	OpCSCreatePlayer:       func() Message { return &CSCreatePlayer{} },
	OpCSJoinPlayer:         func() Message { return &CSJoinPlayer{} },
	OpCSMovePlayer:         func() Message { return &CSMovePlayer{} },
	OpCSRotPlayer:          func() Message { return &CSRotPlayer{} },
	OpCSSkillUse:           func() Message { return &CSSkillUse{} },
	OpCSChatJoin:           func() Message { return &CSChatJoin{} },
	OpCSChatLeave:          func() Message { return &CSChatLeave{} },
	OpCSChatChannelMessage: func() Message { return &CSChatChannelMessage{} },
	OpCSChatScroll:         func() Message { return &CSChatScroll{} },
	OpCSLobbyCreate:        func() Message { return &CSLobbyCreate{} },
	OpCSLobbyJoin:          func() Message { return &CSLobbyJoin{} },
	OpCSLobbyLeave:         func() Message { return &CSLobbyLeave{} },
	OpCSLobbyMessage:       func() Message { return &CSLobbyMessage{} },

	OpSCHello:               func() Message { return &SCHello{} },
	OpSCAccountSuccess:      func() Message { return &SCAccountSuccess{} },
	OpSCAccountError:        func() Message { return &SCAccountError{} },
	OpSCPlayerCreateSuccess: func() Message { return &SCPlayerCreateSuccess{} },
	OpSCPlayerCreateError:   func() Message { return &SCPlayerCreateError{} },
	OpSCPlayerJoinSuccess:   func() Message { return &SCPlayerJoinSuccess{} },
	OpSCPlayerJoinError:     func() Message { return &SCPlayerJoinError{} },
	OpSCPlayerSpawn:         func() Message { return &SCPlayerSpawn{} },
	OpSCMovePlayer:          func() Message { return &SCMovePlayer{} },
	OpSCRotPlayer:           func() Message { return &SCRotPlayer{} },
	OpSCUnitMove:            func() Message { return &SCUnitMove{} },
	OpSCStatUpdates:         func() Message { return &SCStatUpdates{} },
	OpSCSkillUseResult:      func() Message { return &SCSkillUseResult{} },
	OpSCCombatResult:        func() Message { return &SCCombatResult{} },
	OpSCUnitDespawn:         func() Message { return &SCUnitDespawn{} },
	OpSCChatJoinSuccess:     func() Message { return &SCChatJoinSuccess{} },
	OpSCChatJoinError:       func() Message { return &SCChatJoinError{} },
	OpSCChatMessage:         func() Message { return &SCChatMessage{} },
	OpSCLobbyCreateSuccess:  func() Message { return &SCLobbyCreateSuccess{} },
	OpSCLobbyCreateError:    func() Message { return &SCLobbyCreateError{} },
	OpSCLobbyJoinSuccess:    func() Message { return &SCLobbyJoinSuccess{} },
	OpSCLobbyJoinError:      func() Message { return &SCLobbyJoinError{} },
	OpSCLobbyLeaveSuccess:   func() Message { return &SCLobbyLeaveSuccess{} },
	OpSCLobbyMessage:        func() Message { return &SCLobbyMessage{} },
	OpSCZoneLoad:            func() Message { return &SCZoneLoad{} },
}

func newMessage(op Opcode) (Message, bool) {
	f, ok := factories[op]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Encode serialises msg as [u8 opcode][fields].
func Encode(msg Message) []byte {
	w := NewWriter(msg.Opcode())
	msg.encode(w)
	return w.Bytes()
}

// Decode parses one complete message payload.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	r := NewReader(data)
	msg, ok := newMessage(r.Opcode())
	if !ok {
		return nil, fmt.Errorf("%w 0x%02X", ErrUnknownOpcode, data[0])
	}
	msg.decode(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.Opcode(), err)
	}
	if r.Remaining() > 0 {
		return nil, fmt.Errorf("decode %s: %w (%d)", r.Opcode(), ErrTrailingBytes, r.Remaining())
	}
	return msg, nil
}
