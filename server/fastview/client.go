package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// The rate at which ele-updates are sent to the client, so as not to overburden it.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// A Client publishes updates unidirectionally to one browser page over a
// websocket. Updates must be idempotent: when they arrive faster than the
// publish rate, pending ones are merged and only the merged result is sent.
type Client struct {
	updates <-chan []EleUpdate
	ws      *websock
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket and returns a client publishing
// the passed updates to it.
func NewClient(
	updates <-chan []EleUpdate,
	w http.ResponseWriter,
	r *http.Request,
) (*Client, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client{
		updates: updates,
		ws:      newWebSocket(ws),
		rootCtx: r.Context(),
	}, nil
}

// errUpdatesClosed ends Sync when the update source closes.
var errUpdatesClosed = errors.New("update source closed")

// Sync publishes updates until the client disconnects, the request context is
// cancelled, or the update source closes, and then closes the websocket.
// Sync returns nil for any of those, or the unexpected error that ended it.
func (cli *Client) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// Unblocks the reader, which has no other way to observe cancellation.
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})

	err := group.Wait()
	if errors.Is(err, errUpdatesClosed) || isClosure(err) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// pingPong checks client liveness. Pongs are only handled while readMessages
// is running.
func (cli *Client) pingPong(ctx context.Context) error {
	// Buffered and never closed: the handler runs on the reader's goroutine and
	// may fire after this function returns.
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}

			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					err = fmt.Errorf("ping failed: %T %w", err, err)
				}
			}
			return
		})
}

// readMessages drains messages from the client, which sends none besides
// control frames. Errors returned by websocket Read methods are permanent,
// hence any error must trigger full teardown.
func (cli *Client) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, _, readErr = ws.ReadMessage()
				return
			})
		if ctx.Err() != nil {
			// Closing the socket on cancellation fails the pending read.
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// publish sends updates at most once per pubResolution. Updates arriving in
// between are merged into a pending batch which is flushed on the next tick,
// so the client always ends up with the latest state.
func (cli *Client) publish(ctx context.Context) error {
	var pending []EleUpdate
	lastSync := time.Time{}
	flush := channerics.NewTicker(ctx.Done(), pubResolution)

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			if !ok {
				return errUpdatesClosed
			}
			pending = Merge(pending, updates)
		case <-flush:
		}

		if len(pending) == 0 || time.Since(lastSync) < pubResolution {
			continue
		}
		if err := cli.send(ctx, pending); err != nil {
			return err
		}
		glog.V(2).Infof("published %d ele-updates", len(pending))
		pending = nil
		lastSync = time.Now()
	}
}

func (cli *Client) send(ctx context.Context, updates []EleUpdate) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (writeErr error) {
			if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
				writeErr = fmt.Errorf("failed to set deadline: %T %w", writeErr, writeErr)
				return
			}

			if writeErr = ws.WriteJSON(updates); writeErr != nil {
				if isError(writeErr) {
					writeErr = fmt.Errorf("publish failed: %T %w", writeErr, writeErr)
				}
			}
			return
		})
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
