// Package obs controls OBS Studio over its v5 websocket protocol: scene
// switches and stream start/stop. The broadcaster treats OBS as best
// effort; every failure here is reported, none is fatal upstream.
package obs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/stellarlinkco/onair/internal/config"
)

const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7

	rpcVersion     = 1
	requestTimeout = 10 * time.Second
)

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloData struct {
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type requestData struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type responseData struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// Controller is a connected OBS websocket session. Connect performs the
// Hello/Identify handshake including challenge auth when OBS has a
// password set.
type Controller struct {
	cfg config.StreamingConfig

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewController(cfg config.StreamingConfig) *Controller {
	return &Controller{cfg: cfg}
}

func Connect(ctx context.Context, cfg config.StreamingConfig) (*Controller, error) {
	c := NewController(cfg)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) Connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.cfg.OBSWebsocketURL, nil)
	if err != nil {
		return fmt.Errorf("dial OBS: %w", err)
	}

	var hello envelope
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		conn.Close(websocket.StatusInternalError, "handshake failed")
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		conn.Close(websocket.StatusProtocolError, "unexpected opcode")
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}

	identify := map[string]any{"rpcVersion": rpcVersion}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err == nil && hd.Authentication != nil {
		identify["authentication"] = authResponse(c.cfg.OBSPassword, hd.Authentication.Salt, hd.Authentication.Challenge)
	}
	if err := c.send(ctx, conn, opIdentify, identify); err != nil {
		conn.Close(websocket.StatusInternalError, "handshake failed")
		return fmt.Errorf("send identify: %w", err)
	}

	var identified envelope
	if err := wsjson.Read(ctx, conn, &identified); err != nil {
		conn.Close(websocket.StatusInternalError, "handshake failed")
		return fmt.Errorf("read identified: %w", err)
	}
	if identified.Op != opIdentified {
		conn.Close(websocket.StatusProtocolError, "identify rejected")
		return fmt.Errorf("identify rejected (op %d), check OBS password", identified.Op)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// authResponse derives the v5 challenge answer:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	b64 := base64.StdEncoding.EncodeToString(secret[:])
	answer := sha256.Sum256([]byte(b64 + challenge))
	return base64.StdEncoding.EncodeToString(answer[:])
}

func (c *Controller) send(ctx context.Context, conn *websocket.Conn, op int, d any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, envelope{Op: op, D: data})
}

// request sends one request and waits for its matching response,
// skipping unrelated events on the wire.
func (c *Controller) request(ctx context.Context, reqType string, reqData any, out any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected to OBS")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	id := uuid.NewString()
	if err := c.send(ctx, conn, opRequest, requestData{
		RequestType: reqType,
		RequestID:   id,
		RequestData: reqData,
	}); err != nil {
		return fmt.Errorf("send %s: %w", reqType, err)
	}

	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read %s response: %w", reqType, err)
		}
		if env.Op != opRequestResponse {
			continue
		}
		var resp responseData
		if err := json.Unmarshal(env.D, &resp); err != nil {
			return fmt.Errorf("decode %s response: %w", reqType, err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return fmt.Errorf("%s failed (code %d): %s", reqType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("decode %s data: %w", reqType, err)
			}
		}
		return nil
	}
}

func (c *Controller) SetScene(ctx context.Context, scene string) error {
	return c.request(ctx, "SetCurrentProgramScene", map[string]string{"sceneName": scene}, nil)
}

// SwitchToEndingScene flips to the configured ending scene.
func (c *Controller) SwitchToEndingScene(ctx context.Context) error {
	return c.SetScene(ctx, c.cfg.EndingScene)
}

func (c *Controller) StartStream(ctx context.Context) error {
	return c.request(ctx, "StartStream", nil, nil)
}

func (c *Controller) StopStream(ctx context.Context) error {
	return c.request(ctx, "StopStream", nil, nil)
}

// StreamStatus reports whether OBS is currently streaming and for how
// long.
type StreamStatus struct {
	Active   bool    `json:"outputActive"`
	Duration float64 `json:"outputDuration"`
}

func (c *Controller) StreamStatus(ctx context.Context) (StreamStatus, error) {
	var st StreamStatus
	err := c.request(ctx, "GetStreamStatus", nil, &st)
	return st, err
}

func (c *Controller) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "shutting down")
}
