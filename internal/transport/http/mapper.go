package http

import (
	"encoding/json"

	"github.com/rentloop/rentloop-server/internal/core"
	"github.com/rentloop/rentloop-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeAddUser:
		var data proto.AddUserData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.User == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandIdentify,
			User: data.User,
		}, nil, nil
	case proto.InboundTypeSendMsg:
		var data proto.SendMsgData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.To == "" {
			// Treated like an unknown recipient: dropped, no error.
			return nil, nil, nil
		}
		return &core.Command{
			Kind: core.CommandSendDirect,
			Message: core.DirectMessage{
				To:      data.To,
				Payload: data.Message,
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventDirectMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.OutboundEventReceiveMsg,
			Data:  event.Message.Payload,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
