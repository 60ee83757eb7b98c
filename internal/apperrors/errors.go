package apperrors

import (
	"github.com/palemoky/truco-paulista/internal/protocol"
)

// Kind 错误种类，稳定的机器可读名称
type Kind string

const (
	KindRoomFull       Kind = "RoomFull"
	KindInvalidName    Kind = "InvalidName"
	KindNameTaken      Kind = "NameTaken"
	KindRoomNotFound   Kind = "RoomNotFound"
	KindNotInRoom      Kind = "NotInRoom"
	KindHandInactive   Kind = "HandInactive"
	KindTrucoPending   Kind = "TrucoPending"
	KindNotYourTurn    Kind = "NotYourTurn"
	KindCardNotFound   Kind = "CardNotFound"
	KindNoTrucoPending Kind = "NoTrucoPending"
	KindWrongTeam      Kind = "WrongTeam"
	KindStakeAtLimit   Kind = "StakeAtLimit"
	KindInvalidMsg     Kind = "InvalidMsg"
)

// GameError 游戏规则错误，可恢复，直接反馈给发起操作的玩家
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newGameError(code int, kind Kind) *GameError {
	return &GameError{Code: code, Kind: kind, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomFull       = newGameError(protocol.ErrCodeRoomFull, KindRoomFull)
	ErrInvalidName    = newGameError(protocol.ErrCodeInvalidName, KindInvalidName)
	ErrNameTaken      = newGameError(protocol.ErrCodeNameTaken, KindNameTaken)
	ErrRoomNotFound   = newGameError(protocol.ErrCodeRoomNotFound, KindRoomNotFound)
	ErrNotInRoom      = newGameError(protocol.ErrCodeNotInRoom, KindNotInRoom)
	ErrHandInactive   = newGameError(protocol.ErrCodeHandInactive, KindHandInactive)
	ErrTrucoPending   = newGameError(protocol.ErrCodeTrucoPending, KindTrucoPending)
	ErrNotYourTurn    = newGameError(protocol.ErrCodeNotYourTurn, KindNotYourTurn)
	ErrCardNotFound   = newGameError(protocol.ErrCodeCardNotFound, KindCardNotFound)
	ErrNoTrucoPending = newGameError(protocol.ErrCodeNoTrucoPending, KindNoTrucoPending)
	ErrWrongTeam      = newGameError(protocol.ErrCodeWrongTeam, KindWrongTeam)
	ErrStakeAtLimit   = newGameError(protocol.ErrCodeStakeAtLimit, KindStakeAtLimit)
	ErrInvalidMsg     = newGameError(protocol.ErrCodeInvalidMsg, KindInvalidMsg)
)
