package network

import (
	"errors"
	"testing"

	"elevsim/src/types"
)

func TestRoundTripAllTopics(t *testing.T) {
	messages := []Message{
		RequestFloor(3, types.DirUp),
		UpdateFloor(7, types.DirDown),
		OpenDoor(22, types.DirInactive),
		FaultReport(5, types.StuckFloor),
		Command(CommandUnlockDoor),
		Command(CommandTerminate),
		StatusRequest(),
		Ack(),
		Destination(9, types.DoorJam),
		FloorRequest("14:05:15.0", 2, types.DirUp, 4, types.NoError),
	}

	for _, msg := range messages {
		encoded, err := Encode(msg)
		if err != nil {
			t.Fatalf("Encode(%v) returned %v", msg, err)
		}
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(%s) returned %v", encoded, err)
		}
		if decoded != msg {
			t.Errorf("Decode(Encode(msg)) = %+v, expected %+v", decoded, msg)
		}
		reencoded, _ := Encode(decoded)
		if string(reencoded) != string(encoded) {
			t.Errorf("Encode(Decode(%s)) = %s", encoded, reencoded)
		}
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	msg, err := Decode([]byte(`{"ack":true,"colour":"blue","floor":4}`))
	if err != nil {
		t.Fatalf("Decode returned %v", err)
	}
	if !msg.Ack || msg.Floor != 4 {
		t.Errorf("Decode = %+v, expected ack and floor 4", msg)
	}
	if msg.Has("colour") {
		t.Errorf("Has(colour) = true, expected unknown keys to be dropped")
	}
}

func TestDecodeMissingRequiredKey(t *testing.T) {
	inputs := []string{
		`{"topic":"request-floor","floor":3}`,
		`{"topic":"update-floor","floorButton":"UP"}`,
		`{"topic":"error-type","floor":2}`,
		`{"topic":"command"}`,
	}
	for _, input := range inputs {
		if _, err := Decode([]byte(input)); !errors.Is(err, ErrProtocol) {
			t.Errorf("Decode(%s) error = %v, expected ErrProtocol", input, err)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"floor":"four"}`,
		`{"floorButton":"SIDEWAYS"}`,
		`{"error":"ON_FIRE"}`,
		`{"topic":"dance"}`,
	}
	for _, input := range inputs {
		if _, err := Decode([]byte(input)); !errors.Is(err, ErrProtocol) {
			t.Errorf("Decode(%s) error = %v, expected ErrProtocol", input, err)
		}
	}
}

func TestDecodeNumericStrings(t *testing.T) {
	msg, err := Decode([]byte(`{"time":"14:05:15.0","floor":"2","floorButton":"UP","destinationFloor":"4","error":"DOOR_JAM"}`))
	if err != nil {
		t.Fatalf("Decode returned %v", err)
	}
	if msg.Floor != 2 || msg.DestinationFloor != 4 || msg.Fault != types.DoorJam {
		t.Errorf("Decode = %+v, expected floor 2 to 4 with DOOR_JAM", msg)
	}
}

func TestRequire(t *testing.T) {
	ack := Ack()
	if err := ack.Require(KeyAck); err != nil {
		t.Errorf("Require(ack) = %v, expected nil", err)
	}
	if err := ack.Require(KeyDestinationFloor, KeyError); !errors.Is(err, ErrProtocol) {
		t.Errorf("Require(destinationFloor) = %v, expected ErrProtocol", err)
	}
}
