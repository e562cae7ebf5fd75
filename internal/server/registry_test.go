package server

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"dukelink"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(log.New(io.Discard, "", 0))
}

func registered(t *testing.T, g *Registry) (*Client, *fakeWire) {
	t.Helper()
	c, w := newTestClient(t)
	g.Register(c)
	return c, w
}

func TestJoinRoomCreatesRoomLazily(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)

	require.Equal(t, 0, g.NumRooms())

	g.JoinRoom(context.Background(), x, "alpha")
	require.Equal(t, 1, g.NumRooms())

	msg := xw.recv(t)
	require.Equal(t, dukelink.CmdRoom, msg.Command)
	require.Equal(t, "alpha", msg.Payload)
	xw.expectNone(t)
}

func TestSecondJoinFiresRoomReadyExactlyOnce(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)
	y, yw := registered(t, g)

	g.JoinRoom(context.Background(), x, "alpha")
	require.Equal(t, dukelink.CmdRoom, xw.recv(t).Command)

	g.JoinRoom(context.Background(), y, "alpha")
	require.Equal(t, 1, g.NumRooms())

	msg := yw.recv(t)
	require.Equal(t, dukelink.CmdRoom, msg.Command)
	require.Equal(t, "alpha", msg.Payload)

	require.Equal(t, dukelink.CmdRoomReady, xw.recv(t).Command)
	require.Equal(t, dukelink.CmdRoomReady, yw.recv(t).Command)

	xw.expectNone(t)
	yw.expectNone(t)
}

func TestJoinFullRoomRejectedWithoutStateChange(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)
	y, yw := registered(t, g)
	z, zw := registered(t, g)

	g.JoinRoom(context.Background(), x, "alpha")
	g.JoinRoom(context.Background(), y, "alpha")
	xw.recv(t) // room
	xw.recv(t) // room_ready
	yw.recv(t)
	yw.recv(t)

	g.JoinRoom(context.Background(), z, "alpha")

	msg := zw.recv(t)
	require.Equal(t, dukelink.CmdInfo, msg.Command)
	require.Equal(t, dukelink.InfoRoomFull, msg.Payload)

	room, ok := g.MatchRoom(x)
	require.True(t, ok)
	require.Equal(t, 2, room.NumClients())

	// No second room_ready and nothing delivered to the seats.
	xw.expectNone(t)
	yw.expectNone(t)
}

func TestRejoiningSameRoomIsNoOp(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)

	g.JoinRoom(context.Background(), x, "alpha")
	xw.recv(t)

	g.JoinRoom(context.Background(), x, "alpha")
	msg := xw.recv(t)
	require.Equal(t, dukelink.CmdInfo, msg.Command)
	require.Equal(t, dukelink.InfoAlreadyInRoom, msg.Payload)
	require.Equal(t, 1, g.NumRooms())
}

func TestSwitchingRoomsDeletesEmptiedRoom(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)

	g.JoinRoom(context.Background(), x, "alpha")
	xw.recv(t)

	g.JoinRoom(context.Background(), x, "beta")
	msg := xw.recv(t)
	require.Equal(t, dukelink.CmdRoom, msg.Command)
	require.Equal(t, "beta", msg.Payload)

	require.Equal(t, 1, g.NumRooms())
	require.Equal(t, []string{"beta 1/2"}, g.RoomInfos())
}

func TestExitRoomIsIdempotent(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)

	g.ExitRoom(x) // no room yet

	g.JoinRoom(context.Background(), x, "alpha")
	xw.recv(t)

	g.ExitRoom(x)
	require.Equal(t, 0, g.NumRooms())

	g.ExitRoom(x)
	require.Equal(t, 0, g.NumRooms())
}

func TestRemoveLeavesRoomPartialAndBlocksRelay(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)
	y, yw := registered(t, g)

	g.JoinRoom(context.Background(), x, "alpha")
	g.JoinRoom(context.Background(), y, "alpha")
	xw.recv(t)
	xw.recv(t)
	yw.recv(t)
	yw.recv(t)

	g.Remove(x)
	require.Equal(t, 1, g.NumClients())
	require.Equal(t, 1, g.NumRooms())
	require.Equal(t, []string{"alpha 1/2"}, g.RoomInfos())

	// Relay gating: a partial room has no match traffic.
	_, ok := g.MatchRoom(y)
	require.False(t, ok)
}

func TestRemoveDeletesEmptiedRoom(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)

	g.JoinRoom(context.Background(), x, "alpha")
	xw.recv(t)

	g.Remove(x)
	require.Equal(t, 0, g.NumClients())
	require.Equal(t, 0, g.NumRooms())
}

func TestBroadcastExcludesSender(t *testing.T) {
	g := newTestRegistry(t)
	x, xw := registered(t, g)
	_, yw := registered(t, g)

	g.Broadcast(context.Background(), dukelink.CmdInfo, "maintenance soon", x)

	msg := yw.recv(t)
	require.Equal(t, dukelink.CmdInfo, msg.Command)
	require.Equal(t, "maintenance soon", msg.Payload)
	xw.expectNone(t)
}

func TestFindByTagMatchesIDAndName(t *testing.T) {
	g := newTestRegistry(t)
	x, _ := registered(t, g)
	y, _ := registered(t, g)
	y.SetName("suzy")

	require.Equal(t, []*Client{x}, g.FindByTag(x.ID()))
	require.Equal(t, []*Client{y}, g.FindByTag("suzy"))
	require.Empty(t, g.FindByTag("nobody"))
}

func TestStatsAndNames(t *testing.T) {
	g := newTestRegistry(t)
	x, _ := registered(t, g)
	y, _ := registered(t, g)
	x.SetName("zed")
	y.SetName("amy")

	require.Equal(t, "clients:2|rooms:0", g.Stats())
	require.Equal(t, []string{"amy", "zed"}, g.Names())
}
