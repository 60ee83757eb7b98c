package types

import (
	"github.com/palemoky/truco-paulista/internal/protocol"
)

// ServerInterface 处理器需要的服务器能力（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetClientByID(id string) ClientInterface
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetName() string
	SetName(name string)
	GetRoom() string
	SetRoom(id string)
	SendMessage(msg *protocol.Message)
	Close()
}
