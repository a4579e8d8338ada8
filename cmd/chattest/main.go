// Command chattest load-tests the realtime chat: every client holds a
// websocket open and sends direct messages over HTTP, counting the
// notifications that come back.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

const (
	chatPath  = "/modules/firebase-basic-chat"
	loginPath = "/modules/corporate-event/login"
)

type counters struct {
	dialed    atomic.Int64
	connected atomic.Int64
	sent      atomic.Int64
	delivered atomic.Int64
	throttled atomic.Int64
	failures  atomic.Int64
	sendNanos atomic.Int64
}

func (c *counters) report(elapsed time.Duration) {
	log.Printf("ran for %s", elapsed.Round(time.Millisecond))
	log.Printf("sockets   %d/%d connected", c.connected.Load(), c.dialed.Load())
	log.Printf("messages  %d sent, %d delivered, %d throttled", c.sent.Load(), c.delivered.Load(), c.throttled.Load())
	if n := c.sent.Load(); n > 0 {
		log.Printf("send avg  %s", (time.Duration(c.sendNanos.Load()) / time.Duration(n)).Round(time.Microsecond))
	}
	log.Printf("failures  %d", c.failures.Load())
}

type chatClient struct {
	baseURL  url.URL
	http     *http.Client
	token    string
	userID   uint
	receiver uint
	stats    *counters
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "admin@example.com", "login email")
	password := flag.String("password", "password123", "login password")
	receiver := flag.Uint("receiver", 0, "receiver user ID, defaults to the logged in user")
	clients := flag.Int("clients", 50, "concurrent websocket clients")
	interval := flag.Duration("interval", 5*time.Second, "delay between messages per client")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	ramp := flag.Duration("ramp", 50*time.Millisecond, "delay between client starts")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	cc := &chatClient{
		baseURL: url.URL{Scheme: "http", Host: *host},
		http:    &http.Client{Timeout: 5 * time.Second},
		stats:   &counters{},
	}
	if err := cc.login(ctx, *email, *password); err != nil {
		log.Fatalf("login: %v", err)
	}
	cc.receiver = uint(*receiver)
	if cc.receiver == 0 {
		cc.receiver = cc.userID
	}
	log.Printf("user %d sending to %d from %d clients against %s", cc.userID, cc.receiver, *clients, *host)

	start := time.Now()
	var wg sync.WaitGroup
	for i := range *clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cc.run(ctx, i, *interval)
		}()
		select {
		case <-ctx.Done():
		case <-time.After(*ramp):
		}
	}
	<-ctx.Done()
	wg.Wait()

	cc.stats.report(time.Since(start))
}

func (cc *chatClient) endpoint(path string) string {
	u := cc.baseURL
	u.Path = path
	return u.String()
}

func (cc *chatClient) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cc.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cc.token != "" {
		req.Header.Set("Authorization", "Bearer "+cc.token)
	}
	return cc.http.Do(req)
}

func (cc *chatClient) login(ctx context.Context, email, password string) error {
	resp, err := cc.postJSON(ctx, loginPath, map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	cc.token, cc.userID = out.Token, out.User.ID
	return nil
}

func (cc *chatClient) send(ctx context.Context, text string) error {
	began := time.Now()
	resp, err := cc.postJSON(ctx, chatPath+"/send_message", map[string]any{"receiver": cc.receiver, "message": text})
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		cc.stats.sent.Add(1)
		cc.stats.sendNanos.Add(int64(time.Since(began)))
	case http.StatusTooManyRequests:
		cc.stats.throttled.Add(1)
	default:
		return fmt.Errorf("send: status %d", resp.StatusCode)
	}
	return nil
}

func (cc *chatClient) run(ctx context.Context, id int, interval time.Duration) {
	cc.stats.dialed.Add(1)

	ws := cc.baseURL
	ws.Scheme, ws.Path, ws.RawQuery = "ws", chatPath+"/ws", "token="+url.QueryEscape(cc.token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, ws.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		cc.stats.failures.Add(1)
		return
	}
	defer func() { _ = conn.Close() }()
	cc.stats.connected.Add(1)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			cc.stats.delivered.Add(1)
		}
	}()

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-tick.C:
			if err := cc.send(ctx, fmt.Sprintf("load message from client %d", id)); err != nil && ctx.Err() == nil {
				cc.stats.failures.Add(1)
			}
		}
	}
}
