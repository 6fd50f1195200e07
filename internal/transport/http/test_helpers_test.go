package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecast-server/internal/auth"
	"github.com/vovakirdan/wirecast-server/internal/config"
	"github.com/vovakirdan/wirecast-server/internal/core"
	"github.com/vovakirdan/wirecast-server/internal/metrics"
	"github.com/vovakirdan/wirecast-server/internal/proto"
	"github.com/vovakirdan/wirecast-server/internal/store"
	"github.com/vovakirdan/wirecast-server/internal/store/sqlite"
)

const testSecret = "test-secret"

type testEnv struct {
	ts    *httptest.Server
	store *sqlite.SQLiteStore
	hub   *core.Hub
	jwt   *auth.JWTConfig
}

// rawOutbound mirrors proto.Outbound with undecoded data.
type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.JWTSecret = testSecret
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()
	hub := core.NewHub(core.NewRegistry(), st, core.WithLogger(&logger), core.WithMetrics(metrics.New(reg)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	jwtCfg := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	}
	server := NewServer(hub, auth.NewAuthenticator(jwtCfg, &logger), st, reg, cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
		_ = st.Close()
	})

	return &testEnv{ts: ts, store: st, hub: hub, jwt: jwtCfg}
}

func (e *testEnv) token(t *testing.T, userID int64, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(e.jwt, userID, username, "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (e *testEnv) seed(t *testing.T, id string, owner int64, status store.StreamStatus) {
	t.Helper()
	ctx := context.Background()
	if err := e.store.CreateStream(ctx, &store.Stream{ID: id, UserID: owner, Title: "title " + id}); err != nil {
		t.Fatalf("create stream: %v", err)
	}
	if status != store.StreamStatusIdle {
		now := time.Now().UTC()
		if err := e.store.UpdateStreamCounters(ctx, id, store.StreamUpdate{Status: &status, StartedAt: &now}); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, query url.Values, header stdhttp.Header) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	if len(query) > 0 {
		wsURL += "?" + query.Encode()
	}
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// readUntil reads frames until one matches event, or an error frame when
// event is proto.OutboundTypeError.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) rawOutbound {
	t.Helper()
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if event == proto.OutboundTypeError && out.Type == proto.OutboundTypeError {
			return out
		}
		if out.Type == proto.OutboundTypeEvent && out.Event == event {
			return out
		}
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return v
}
