package controller

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"teamreports/models"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedBuffer       = 16
)

type feedEvent struct {
	Type   string         `json:"type"`
	Report *models.Report `json:"report"`
}

// ReportFeed pushes newly created reports to connected dashboard sockets.
// Each socket has its own queue and writer, so Publish never waits on a
// client.
type ReportFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func NewReportFeed() *ReportFeed {
	return &ReportFeed{clients: make(map[*websocket.Conn]chan []byte)}
}

// Publish queues report for every subscriber. A subscriber whose queue is
// full is dropped.
func (f *ReportFeed) Publish(report *models.Report) {
	payload, err := json.Marshal(feedEvent{Type: "report.created", Report: report})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode report event")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn, queue := range f.clients {
		select {
		case queue <- payload:
		default:
			logrus.Debug("Dropping slow report feed subscriber")
			delete(f.clients, conn)
			close(queue)
		}
	}
}

func (f *ReportFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *ReportFeed) subscribe(conn *websocket.Conn) chan []byte {
	queue := make(chan []byte, feedBuffer)
	f.mu.Lock()
	f.clients[conn] = queue
	f.mu.Unlock()
	return queue
}

func (f *ReportFeed) unsubscribe(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if queue, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		close(queue)
	}
}

// HandleReportFeedWS writes queued events until the client goes away or falls
// behind. Incoming messages are ignored.
func (f *ReportFeed) HandleReportFeedWS(c *websocket.Conn) {
	queue := f.subscribe(c)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		f.unsubscribe(c)
		c.Close()
		<-gone
	}()

	for {
		select {
		case payload, ok := <-queue:
			if !ok {
				return
			}
			_ = c.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				logrus.WithError(err).Debug("Report feed write failed")
				return
			}
		case <-gone:
			return
		}
	}
}
