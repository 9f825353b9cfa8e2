package message

import (
	"encoding/json"
	"fmt"
)

// envelope is the frame format: a discriminant plus the variant payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func encode(typ string, msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s payload: %w", typ, err)
	}
	return json.Marshal(envelope{Type: typ, Data: data})
}

// EncodeToServer serializes a client→server message.
func EncodeToServer(msg ToServer) ([]byte, error) {
	switch msg.(type) {
	case AttackEnemy:
		return encode("attack_enemy", msg)
	case EquipItem:
		return encode("equip_item", msg)
	case UnequipItem:
		return encode("unequip_item", msg)
	case UpdateLookingPosition:
		return encode("update_looking_position", msg)
	case UpdateRealPosition:
		return encode("update_real_position", msg)
	case Ping:
		return encode("ping", msg)
	case Pong:
		return encode("pong", msg)
	default:
		return nil, fmt.Errorf("unknown message type %T", msg)
	}
}

// DecodeToServer parses a client→server frame. Unknown discriminants
// and malformed payloads are errors; transports treat them as a fault
// and close the connection.
func DecodeToServer(frame []byte) (ToServer, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("unmarshalling envelope: %w", err)
	}

	var msg ToServer
	var err error
	switch env.Type {
	case "attack_enemy":
		var m AttackEnemy
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "equip_item":
		var m EquipItem
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "unequip_item":
		var m UnequipItem
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "update_looking_position":
		var m UpdateLookingPosition
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "update_real_position":
		var m UpdateRealPosition
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "ping":
		msg = Ping{}
	case "pong":
		msg = Pong{}
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshalling %s payload: %w", env.Type, err)
	}
	return msg, nil
}

// EncodeToClient serializes a server→client message. Disconnect is a
// process-internal sentinel and must never reach the encoder.
func EncodeToClient(msg ToClient) ([]byte, error) {
	switch msg.(type) {
	case SetConfig:
		return encode("set_config", msg)
	case MeUpdate:
		return encode("me_update", msg)
	case PlayerUpdate:
		return encode("player_update", msg)
	case PlayerDisappears:
		return encode("player_disappears", msg)
	case EnemiesAppear:
		return encode("enemies_appear", msg)
	case EnemiesDisappear:
		return encode("enemies_disappear", msg)
	case QuestUpdate:
		return encode("quest_update", msg)
	case FightInfo:
		return encode("fight_info", msg)
	case FightDashboardInfo:
		return encode("fight_dashboard_info", msg)
	case Error:
		return encode("error", msg)
	case Ping:
		return encode("ping", msg)
	case Pong:
		return encode("pong", msg)
	default:
		return nil, fmt.Errorf("unknown message type %T", msg)
	}
}

// DecodeToClient parses a server→client frame.
func DecodeToClient(frame []byte) (ToClient, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("unmarshalling envelope: %w", err)
	}

	var msg ToClient
	var err error
	switch env.Type {
	case "set_config":
		var m SetConfig
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "me_update":
		var m MeUpdate
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "player_update":
		var m PlayerUpdate
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "player_disappears":
		var m PlayerDisappears
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "enemies_appear":
		var m EnemiesAppear
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "enemies_disappear":
		var m EnemiesDisappear
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "quest_update":
		var m QuestUpdate
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "fight_info":
		var m FightInfo
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "fight_dashboard_info":
		var m FightDashboardInfo
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "error":
		var m Error
		err = json.Unmarshal(env.Data, &m)
		msg = m
	case "ping":
		msg = Ping{}
	case "pong":
		msg = Pong{}
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshalling %s payload: %w", env.Type, err)
	}
	return msg, nil
}
