package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"elevsim/src/types"
)

// ErrProtocol marks a datagram that could not be decoded or lacks a key its
// topic requires. It is fatal to the exchange, not to the process.
var ErrProtocol = errors.New("protocol error")

type Topic string

const (
	TopicRequestFloor  Topic = "request-floor"
	TopicUpdateFloor   Topic = "update-floor"
	TopicOpenDoor      Topic = "open-door"
	TopicErrorType     Topic = "error-type"
	TopicCommand       Topic = "command"
	TopicStatusRequest Topic = "status-request"
)

const (
	CommandUnlockDoor = "unlock-door"
	CommandTerminate  = "terminate"
)

const (
	KeyTopic            = "topic"
	KeyFloor            = "floor"
	KeyFloorButton      = "floorButton"
	KeyDestinationFloor = "destinationFloor"
	KeyError            = "error"
	KeyAck              = "ack"
	KeyCommand          = "command"
	KeyTime             = "time"
)

type fieldSet uint16

var keyBits = map[string]fieldSet{
	KeyTopic:            1 << 0,
	KeyFloor:            1 << 1,
	KeyFloorButton:      1 << 2,
	KeyDestinationFloor: 1 << 3,
	KeyError:            1 << 4,
	KeyAck:              1 << 5,
	KeyCommand:          1 << 6,
	KeyTime:             1 << 7,
}

var requiredKeys = map[Topic][]string{
	TopicRequestFloor:  {KeyFloor, KeyFloorButton},
	TopicUpdateFloor:   {KeyFloor, KeyFloorButton},
	TopicOpenDoor:      {KeyFloor, KeyFloorButton},
	TopicErrorType:     {KeyError, KeyFloor},
	TopicCommand:       {KeyCommand},
	TopicStatusRequest: {},
}

// Message is the flat key/value record carried in one datagram. Only the keys
// that were set (or decoded) are encoded; Has reports which ones those are.
type Message struct {
	Topic            Topic
	Floor            int
	Direction        types.Direction
	DestinationFloor int
	Fault            types.FaultKind
	Ack              bool
	Command          string
	Time             string

	fields fieldSet
}

func (m Message) Has(key string) bool {
	bit, ok := keyBits[key]
	return ok && m.fields&bit != 0
}

// Require returns an ErrProtocol for the first missing key.
func (m Message) Require(keys ...string) error {
	for _, key := range keys {
		if !m.Has(key) {
			return fmt.Errorf("%w: missing key %q", ErrProtocol, key)
		}
	}
	return nil
}

func (m *Message) set(keys ...string) {
	for _, key := range keys {
		m.fields |= keyBits[key]
	}
}

func RequestFloor(floor int, dir types.Direction) Message {
	return elevatorReport(TopicRequestFloor, floor, dir)
}

func UpdateFloor(floor int, dir types.Direction) Message {
	return elevatorReport(TopicUpdateFloor, floor, dir)
}

func OpenDoor(floor int, dir types.Direction) Message {
	return elevatorReport(TopicOpenDoor, floor, dir)
}

func elevatorReport(topic Topic, floor int, dir types.Direction) Message {
	m := Message{Topic: topic, Floor: floor, Direction: dir, Fault: types.NoError}
	m.set(KeyTopic, KeyFloor, KeyFloorButton, KeyError)
	return m
}

// FaultReport answers a status request from an elevator that is out of normal service.
func FaultReport(floor int, fault types.FaultKind) Message {
	m := Message{Topic: TopicErrorType, Floor: floor, Fault: fault}
	m.set(KeyTopic, KeyError, KeyFloor)
	return m
}

func Command(command string) Message {
	m := Message{Topic: TopicCommand, Command: command}
	m.set(KeyTopic, KeyCommand)
	return m
}

func StatusRequest() Message {
	m := Message{Topic: TopicStatusRequest, Ack: true}
	m.set(KeyTopic, KeyAck)
	return m
}

func Ack() Message {
	m := Message{Ack: true}
	m.set(KeyAck)
	return m
}

// Destination is the scheduler's reply to request-floor.
func Destination(floor int, fault types.FaultKind) Message {
	m := Message{Ack: true, DestinationFloor: floor, Fault: fault}
	m.set(KeyAck, KeyDestinationFloor, KeyError)
	return m
}

// FloorRequest is what the floor source sends for one trace row.
func FloorRequest(time string, floor int, button types.Direction, dest int, fault types.FaultKind) Message {
	m := Message{Time: time, Floor: floor, Direction: button, DestinationFloor: dest, Fault: fault}
	m.set(KeyTime, KeyFloor, KeyFloorButton, KeyDestinationFloor, KeyError)
	return m
}

func (m Message) String() string {
	encoded, err := Encode(m)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(encoded)
}

func Encode(m Message) ([]byte, error) {
	flat := make(map[string]any, 8)
	if m.Has(KeyTopic) {
		flat[KeyTopic] = string(m.Topic)
	}
	if m.Has(KeyFloor) {
		flat[KeyFloor] = m.Floor
	}
	if m.Has(KeyFloorButton) {
		flat[KeyFloorButton] = m.Direction.String()
	}
	if m.Has(KeyDestinationFloor) {
		flat[KeyDestinationFloor] = m.DestinationFloor
	}
	if m.Has(KeyError) {
		flat[KeyError] = m.Fault.String()
	}
	if m.Has(KeyAck) {
		flat[KeyAck] = m.Ack
	}
	if m.Has(KeyCommand) {
		flat[KeyCommand] = m.Command
	}
	if m.Has(KeyTime) {
		flat[KeyTime] = m.Time
	}
	return json.Marshal(flat)
}

// Decode parses one datagram. Unknown keys are ignored; keys required by the
// message's topic must be present.
func Decode(data []byte) (Message, error) {
	var m Message
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return m, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	for key, value := range raw {
		var err error
		switch key {
		case KeyTopic:
			var topic string
			err = json.Unmarshal(value, &topic)
			m.Topic = Topic(topic)
		case KeyFloor:
			m.Floor, err = decodeInt(value)
		case KeyDestinationFloor:
			m.DestinationFloor, err = decodeInt(value)
		case KeyFloorButton:
			var name string
			if err = json.Unmarshal(value, &name); err == nil {
				m.Direction, err = types.ParseDirection(name)
			}
		case KeyError:
			var name string
			if err = json.Unmarshal(value, &name); err == nil {
				m.Fault, err = types.ParseFaultKind(name)
			}
		case KeyAck:
			err = json.Unmarshal(value, &m.Ack)
		case KeyCommand:
			err = json.Unmarshal(value, &m.Command)
		case KeyTime:
			err = json.Unmarshal(value, &m.Time)
		default:
			continue
		}
		if err != nil {
			return Message{}, fmt.Errorf("%w: key %q: %v", ErrProtocol, key, err)
		}
		m.set(key)
	}

	if m.Has(KeyTopic) {
		required, known := requiredKeys[m.Topic]
		if !known {
			return Message{}, fmt.Errorf("%w: unknown topic %q", ErrProtocol, m.Topic)
		}
		if err := m.Require(required...); err != nil {
			return Message{}, err
		}
	}
	return m, nil
}

// decodeInt accepts a JSON number or a numeric string; trace files carry floors as text.
func decodeInt(value json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
