package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/wirecast-server/internal/proto"
	"github.com/vovakirdan/wirecast-server/internal/store"
)

func getJSON(t *testing.T, env *testEnv, path string, out any) int {
	t.Helper()

	resp, err := env.ts.Client().Get(env.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestGetStreamNotFound(t *testing.T) {
	env := startTestServer(t, testConfig())

	if code := getJSON(t, env, "/api/streams/nope", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code := getJSON(t, env, "/api/streams/nope/viewers", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestViewersEndpointReflectsRegistry(t *testing.T) {
	env := startTestServer(t, testConfig())
	env.seed(t, "s1", 1, store.StreamStatusLive)

	var before ViewersResponse
	if code := getJSON(t, env, "/api/streams/s1/viewers", &before); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if before.ViewersCount != 0 {
		t.Fatalf("expected 0 viewers, got %d", before.ViewersCount)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := env.dial(t, ctx, nil, nil)
	send(t, ctx, conn, proto.InboundTypeJoinStream, proto.StreamData{StreamID: "s1"})
	readUntil(t, ctx, conn, proto.EventJoinedStream)

	var after ViewersResponse
	getJSON(t, env, "/api/streams/s1/viewers", &after)
	if after.StreamID != "s1" || after.ViewersCount != 1 {
		t.Fatalf("unexpected viewers response: %+v", after)
	}

	var stream StreamResponse
	getJSON(t, env, "/api/streams/s1", &stream)
	if stream.Status != "live" || stream.PeakViewers != 1 || stream.TotalViews != 1 || stream.StartedAt == nil {
		t.Fatalf("unexpected stream response: %+v", stream)
	}
}

func TestCreateStreamRequiresToken(t *testing.T) {
	env := startTestServer(t, testConfig())
	body := []byte(`{"title":"late night coding"}`)

	resp, err := env.ts.Client().Post(env.ts.URL+"/api/streams", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, env.ts.URL+"/api/streams", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPost, env.ts.URL+"/api/streams", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token(t, 12, "coder"))
	resp, err = env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created StreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.UserID != 12 || created.Status != "idle" || created.Title != "late night coding" {
		t.Fatalf("unexpected created stream: %+v", created)
	}

	st, err := env.store.GetStream(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("stream not stored: %v", err)
	}
	if st.UserID != 12 {
		t.Fatalf("unexpected owner %d", st.UserID)
	}
}

func TestMessagesHistory(t *testing.T) {
	env := startTestServer(t, testConfig())
	env.seed(t, "s1", 1, store.StreamStatusLive)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := env.dial(t, ctx, nil, nil)
	send(t, ctx, conn, proto.InboundTypeJoinStream, proto.StreamData{StreamID: "s1"})
	for _, text := range []string{"one", "two", "three"} {
		send(t, ctx, conn, proto.InboundTypeChatMessage, proto.ChatData{StreamID: "s1", Content: text})
		readUntil(t, ctx, conn, proto.EventChatMessage)
	}

	var msgs []MessageResponse
	if code := getJSON(t, env, "/api/streams/s1/messages?limit=2", &msgs); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if len(msgs) != 2 || msgs[0].Content != "two" || msgs[1].Content != "three" {
		t.Fatalf("expected last two messages oldest first, got %+v", msgs)
	}
	if msgs[0].DisplayName != "anonymous" {
		t.Fatalf("unexpected author %q", msgs[0].DisplayName)
	}

	if code := getJSON(t, env, "/api/streams/s1/messages?limit=abc", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env.dial(t, ctx, nil, nil)
	waitClients(t, env, 1)

	resp, err := env.ts.Client().Get(env.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "wirecast_connections 1") {
		t.Fatalf("connections gauge missing from metrics output:\n%s", body)
	}
}
