package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestClient_ReceiveMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")

		ctx := r.Context()
		for _, msg := range []string{"one", "two", "three"} {
			if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away
		conn.Read(ctx)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := New(DefaultConfig(wsURL(server), "test"))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected = false after Connect")
	}

	var got []string
	for len(got) < 3 {
		select {
		case msg := <-client.Messages():
			got = append(got, string(msg))
		case <-ctx.Done():
			t.Fatalf("timed out after %d messages: %v", len(got), got)
		}
	}
	if got[0] != "one" || got[1] != "two" || got[2] != "three" {
		t.Errorf("messages = %v", got)
	}
}

func TestClient_Send(t *testing.T) {
	echoed := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")

		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		echoed <- string(data)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := New(DefaultConfig(wsURL(server), "test"))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Send(ctx, []byte("ping-me")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-echoed:
		if got != "ping-me" {
			t.Errorf("server received %q", got)
		}
	case <-ctx.Done():
		t.Fatal("server never received the message")
	}
}

func TestClient_SendWithoutConnect(t *testing.T) {
	client, err := New(Config{URL: "ws://localhost:1", Name: "test"})
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	if err := client.Send(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error when not connected")
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.Read(r.Context())
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := New(DefaultConfig(wsURL(server), "test"))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", client.State())
	}
}
