package protocol

import "fmt"

// Opcode is the first byte of every message.
type Opcode uint8

// Client to server.
const (
	OpCSNewAccount Opcode = iota + 0x01
	OpCSLoadAccount
	OpCSCreatePlayer
	OpCSJoinPlayer
	OpCSMovePlayer
	OpCSRotPlayer
	OpCSSkillUse
	OpCSChatJoin
	OpCSChatLeave
	OpCSChatChannelMessage
	OpCSChatScroll
	OpCSLobbyCreate
	OpCSLobbyJoin
	OpCSLobbyLeave
	OpCSLobbyMessage
)

// Server to client.
const (
	OpSCHello Opcode = iota + 0x80
	OpSCAccountSuccess
	OpSCAccountError
	OpSCPlayerCreateSuccess
	OpSCPlayerCreateError
	OpSCPlayerJoinSuccess
	OpSCPlayerJoinError
	OpSCPlayerSpawn
	OpSCMovePlayer
	OpSCRotPlayer
	OpSCUnitMove
	OpSCStatUpdates
	OpSCSkillUseResult
	OpSCCombatResult
	OpSCUnitDespawn
	OpSCChatJoinSuccess
	OpSCChatJoinError
	OpSCChatMessage
	OpSCLobbyCreateSuccess
	OpSCLobbyCreateError
	OpSCLobbyJoinSuccess
	OpSCLobbyJoinError
	OpSCLobbyLeaveSuccess
	OpSCLobbyMessage
	OpSCZoneLoad
)

func (op Opcode) String() string {
	if m, ok := newMessage(op); ok {
		return fmt.Sprintf("%T", m)[len("*protocol."):]
	}
	return fmt.Sprintf("Opcode(0x%02X)", uint8(op))
}

// Channel is the delivery class of a message.
type Channel uint8

const (
	Reliable Channel = iota
	// Unreliable messages may be dropped under backpressure; a newer one
	// supersedes them anyway.
	Unreliable
)

// ChannelOf returns the delivery class for op.
func ChannelOf(op Opcode) Channel {
	switch op {
	case OpCSMovePlayer, OpCSRotPlayer, OpSCMovePlayer, OpSCRotPlayer, OpSCUnitMove:
		return Unreliable
	}
	return Reliable
}
