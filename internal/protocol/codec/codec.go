package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/protocol"
)

const (
	fieldType    = "type"
	fieldPayload = "payload"
)

// NewMessage 创建一个新消息，payload 以 JSON 编码
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &protocol.Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 文本帧
func Encode(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// Encoder 会追加换行，去掉后复制出来，buf 归还后会被复用
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Decode 从 JSON 文本帧解码消息
// 注意: 使用完毕后可调用 PutMessage 归还对象到池
func Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, errors.New("消息缺少 type 字段")
	}
	return msg, nil
}

// EncodeBinary 将消息编码为 Protobuf 二进制帧（google.protobuf.Struct 信封）
func EncodeBinary(m *protocol.Message) ([]byte, error) {
	envelope := GetStruct()
	defer PutStruct(envelope)

	envelope.Fields = map[string]*structpb.Value{
		fieldType: structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		payload := &structpb.Value{}
		if err := protojson.Unmarshal(m.Payload, payload); err != nil {
			return nil, fmt.Errorf("payload 转换失败: %w", err)
		}
		envelope.Fields[fieldPayload] = payload
	}

	return proto.Marshal(envelope)
}

// DecodeBinary 从 Protobuf 二进制帧解码消息
func DecodeBinary(data []byte) (*protocol.Message, error) {
	envelope := GetStruct()
	defer PutStruct(envelope)

	if err := proto.Unmarshal(data, envelope); err != nil {
		return nil, err
	}

	msgType := envelope.GetFields()[fieldType].GetStringValue()
	if msgType == "" {
		return nil, errors.New("消息缺少 type 字段")
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(msgType)
	if payload, ok := envelope.GetFields()[fieldPayload]; ok {
		raw, err := protojson.Marshal(payload)
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
	return msg
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}

// NewGameErrorMessage 将规则错误转换为错误消息（包含错误种类）
func NewGameErrorMessage(err *apperrors.GameError) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    err.Code,
		Kind:    string(err.Kind),
		Message: err.Message,
	})
	return msg
}
