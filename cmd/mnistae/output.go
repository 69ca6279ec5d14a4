package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorgonia/mnistae/encoding"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"
)

type point struct {
	Step int     `json:"step"`
	Loss float32 `json:"loss"`
}

// Encoder pushes the loss of every encoded snapshot to websocket clients.
// Training never waits for a client: points are dropped when nobody reads them.
type Encoder struct {
	points chan point
}

var upgrader = websocket.Upgrader{} // use default options

func (enc *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.Warningf("upgrade: %v", err)
		return
	}
	defer c.Close()
	for {
		select {
		case p := <-enc.points:
			b, _ := json.Marshal(p)
			if err = c.WriteMessage(websocket.TextMessage, b); err != nil {
				klog.V(1).Infof("write: %v", err)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// NewEncoder buffers a few points for slow clients.
func NewEncoder() *Encoder {
	return &Encoder{points: make(chan point, 16)}
}

// Encode a snapshot
func (enc *Encoder) Encode(ms encoding.Snapshot) error {
	select {
	case enc.points <- point{Step: ms.Step, Loss: ms.Loss}:
	default:
	}
	return nil
}

// Flush ...
func (enc *Encoder) Flush() error { return nil }
