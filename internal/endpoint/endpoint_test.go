package endpoint

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jsonmux/jsonmux/internal/protocol"
	"github.com/jsonmux/jsonmux/internal/protocol/frame"
	"github.com/jsonmux/jsonmux/internal/testutil/testlog"
)

func TestSendWritesOneFrame(t *testing.T) {
	log := testlog.Start(t)
	local, remote := net.Pipe()
	defer remote.Close()

	ep, err := New(local, frame.Width1, Options{Role: "client", Logger: log})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}
	defer ep.Close()

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- ep.Send(protocol.Message{"type": "ping", "id": "req-1"})
	}()

	header := make([]byte, 1)
	if _, err := io.ReadFull(remote, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	payload := make([]byte, int(header[0]))
	if _, err := io.ReadFull(remote, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("send: %v", err)
	}

	dec, err := frame.NewDecoder(frame.Width1)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	results := dec.Feed(append(header, payload...))
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("unexpected decode results: %+v", results)
	}
	if results[0].Msg.Type() != "ping" || results[0].Msg.ID() != "req-1" {
		t.Fatalf("unexpected message: %+v", results[0].Msg)
	}
}

func TestSendOversizedFailsSynchronously(t *testing.T) {
	log := testlog.Start(t)
	local, remote := net.Pipe()
	defer remote.Close()

	ep, err := New(local, frame.Width1, Options{Role: "client", Logger: log})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}
	defer ep.Close()

	// No reader on the remote side: an oversized message must fail
	// before any write, so this cannot block.
	err = ep.Send(protocol.Message{"blob": strings.Repeat("x", 300)})
	if !errors.Is(err, frame.ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestRunDispatchesDecodedMessages(t *testing.T) {
	log := testlog.Start(t)
	local, remote := net.Pipe()

	ep, err := New(local, frame.Width1, Options{Role: "server", Logger: log})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}

	received := make(chan protocol.Message, 4)
	runErr := make(chan error, 1)
	go func() {
		runErr <- ep.Run(func(msg protocol.Message) {
			received <- msg
		})
	}()

	for i := 0; i < 3; i++ {
		encoded, err := frame.Encode(protocol.Message{"seq": float64(i)}, frame.Width1)
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		if _, err := remote.Write(encoded); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case msg := <-received:
			if msg["seq"] != float64(i) {
				t.Fatalf("message %d out of order: %+v", i, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}

	remote.Close()
	if err := <-runErr; err != nil {
		t.Fatalf("run should return nil on orderly close, got %v", err)
	}
}

func TestRunReportsMalformedFrameAndContinues(t *testing.T) {
	log := testlog.Start(t)
	local, remote := net.Pipe()
	defer remote.Close()

	malformed := make(chan error, 1)
	ep, err := New(local, frame.Width1, Options{
		Role:   "server",
		Logger: log,
		Hooks: Hooks{
			MalformedFrame: func(err error) { malformed <- err },
		},
	})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}
	defer ep.Close()

	received := make(chan protocol.Message, 1)
	go func() {
		_ = ep.Run(func(msg protocol.Message) { received <- msg })
	}()

	valid, err := frame.Encode(protocol.Message{"ok": true}, frame.Width1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	stream := append([]byte{5}, []byte("abcde")...)
	stream = append(stream, valid...)
	if _, err := remote.Write(stream); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-malformed:
		if !errors.Is(err, frame.ErrMalformedFrame) {
			t.Fatalf("expected ErrMalformedFrame, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("malformed frame hook never fired")
	}
	select {
	case msg := <-received:
		if msg["ok"] != true {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("valid frame after malformed one never dispatched")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	log := testlog.Start(t)
	local, remote := net.Pipe()
	defer remote.Close()

	ep, err := New(local, frame.Width1, Options{Role: "client", Logger: log})
	if err != nil {
		t.Fatalf("new endpoint: %v", err)
	}
	if err := ep.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := ep.Send(protocol.Message{"type": "ping"}); !errors.Is(err, ErrEndpointClosed) {
		t.Fatalf("expected ErrEndpointClosed, got %v", err)
	}
}
