// Package telemetry publishes board status over MQTT.
package telemetry

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/link"
)

// BoardStatus is published to <id>/status whenever the board changes.
type BoardStatus struct {
	ID           string     `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	SlotA        uint32     `protobuf:"varint,2,opt,name=slot_a,proto3" json:"slot_a,omitempty"`
	SlotB        uint32     `protobuf:"varint,3,opt,name=slot_b,proto3" json:"slot_b,omitempty"`
	BlinkRate    int32      `protobuf:"varint,4,opt,name=blink_rate,proto3" json:"blink_rate,omitempty"`
	PowerOff     bool       `protobuf:"varint,5,opt,name=power_off,proto3" json:"power_off,omitempty"`
	Asleep       bool       `protobuf:"varint,6,opt,name=asleep,proto3" json:"asleep,omitempty"`
	LinkDown     bool       `protobuf:"varint,7,opt,name=link_down,proto3" json:"link_down,omitempty"`
	TxState      string     `protobuf:"bytes,8,opt,name=tx_state,proto3" json:"tx_state,omitempty"`
	RxState      string     `protobuf:"bytes,9,opt,name=rx_state,proto3" json:"rx_state,omitempty"`
	PendingMoves uint32     `protobuf:"varint,10,opt,name=pending_moves,proto3" json:"pending_moves,omitempty"`
	Stats        *LinkStats `protobuf:"bytes,11,opt,name=stats,proto3" json:"stats,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *BoardStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BoardStatus) Reset() { *m = BoardStatus{} }

// String implements proto.Message.
func (m *BoardStatus) String() string { return proto.CompactTextString(m) }

// Move returns the displayed move.
func (m *BoardStatus) Move() board.Move {
	return board.Move{From: board.Coordinate(m.SlotA), To: board.Coordinate(m.SlotB)}
}

// LinkStats are the link protocol counters.
type LinkStats struct {
	MovesSent     uint64 `protobuf:"varint,1,opt,name=moves_sent,proto3" json:"moves_sent,omitempty"`
	MovesReceived uint64 `protobuf:"varint,2,opt,name=moves_received,proto3" json:"moves_received,omitempty"`
	StartRetries  uint64 `protobuf:"varint,3,opt,name=start_retries,proto3" json:"start_retries,omitempty"`
	RepeatsSent   uint64 `protobuf:"varint,4,opt,name=repeats_sent,proto3" json:"repeats_sent,omitempty"`
	Rejected      uint64 `protobuf:"varint,5,opt,name=rejected,proto3" json:"rejected,omitempty"`
	GiveUps       uint64 `protobuf:"varint,6,opt,name=give_ups,proto3" json:"give_ups,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *LinkStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStats) Reset() { *m = LinkStats{} }

// String implements proto.Message.
func (m *LinkStats) String() string { return proto.CompactTextString(m) }

// NewBoardStatus converts a status snapshot.
func NewBoardStatus(st firmware.Status) *BoardStatus {
	m := st.Pair.Move()
	return &BoardStatus{
		ID:           st.ID,
		SlotA:        uint32(m.From),
		SlotB:        uint32(m.To),
		BlinkRate:    int32(st.Rate),
		PowerOff:     st.Power == board.PowerOff,
		Asleep:       st.Asleep,
		LinkDown:     st.LinkState == link.StateDown,
		TxState:      st.TxState.String(),
		RxState:      st.RxState.String(),
		PendingMoves: uint32(st.PendingMoves),
		Stats: &LinkStats{
			MovesSent:     st.Stats.MovesSent,
			MovesReceived: st.Stats.MovesReceived,
			StartRetries:  st.Stats.StartRetries,
			RepeatsSent:   st.Stats.RepeatsSent,
			Rejected:      st.Stats.Rejected,
			GiveUps:       st.Stats.GiveUps,
		},
	}
}
