package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomFull          = 2002
	ErrCodeNotInRoom         = 2003
	ErrCodeInvalidName       = 2004
	ErrCodeNameTaken         = 2005
	ErrCodeHandInactive      = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeCardNotFound      = 3003
	ErrCodeTrucoPending      = 4001
	ErrCodeNoTrucoPending    = 4002
	ErrCodeWrongTeam         = 4003
	ErrCodeStakeAtLimit      = 4004
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息（展示给玩家）
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "Erro desconhecido.",
	ErrCodeInvalidMsg:        "Mensagem inválida.",
	ErrCodeRateLimit:         "Muitas mensagens, vá mais devagar.",
	ErrCodeRoomNotFound:      "Sala não encontrada.",
	ErrCodeRoomFull:          "Sala cheia (4 jogadores).",
	ErrCodeNotInRoom:         "Você não está em uma sala.",
	ErrCodeInvalidName:       "Informe um nome válido.",
	ErrCodeNameTaken:         "Nome já em uso na sala.",
	ErrCodeHandInactive:      "Mão inativa.",
	ErrCodeNotYourTurn:       "Não é sua vez.",
	ErrCodeCardNotFound:      "Carta não encontrada.",
	ErrCodeTrucoPending:      "Aguarde a resposta do truco.",
	ErrCodeNoTrucoPending:    "Não há truco pendente.",
	ErrCodeWrongTeam:         "Somente a dupla adversária pode responder.",
	ErrCodeStakeAtLimit:      "Aposta já está no limite.",
	ErrCodeServerMaintenance: "Servidor em manutenção.",
}
