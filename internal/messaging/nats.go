package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectThreadCreated = "forum.thread.created"
	SubjectPostCreated   = "forum.post.created"
	SubjectPostDeleted   = "forum.post.deleted"
	SubjectPostLiked     = "forum.post.liked"
	SubjectPostUnliked   = "forum.post.unliked"

	// SubjectForumAll matches every forum event.
	SubjectForumAll = "forum.>"
)

// Client publishes forum events as JSON.
type Client struct {
	conn *nats.Conn
}

func Connect(url string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.Name("deediq"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	log.Println("NATS connected successfully")
	return &Client{conn: conn}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// Publish marshals event and sends it on subject.
func (c *Client) Publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.conn.Publish(subject, data)
}

// Subscription is satisfied by *nats.Subscription.
type Subscription interface {
	Unsubscribe() error
}

// Subscribe delivers the raw payload of every message on subject.
func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) (Subscription, error) {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Event structures
type ThreadCreatedEvent struct {
	ThreadID   string `json:"thread_id"`
	CategoryID string `json:"category_id"`
	PostID     string `json:"post_id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	Timestamp  string `json:"timestamp"`
}

type PostCreatedEvent struct {
	PostID    string `json:"post_id"`
	ThreadID  string `json:"thread_id"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

type PostDeletedEvent struct {
	PostID        string `json:"post_id"`
	ThreadID      string `json:"thread_id"`
	UserID        string `json:"user_id"`
	ThreadDeleted bool   `json:"thread_deleted"`
	Timestamp     string `json:"timestamp"`
}

type PostLikeEvent struct {
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	Likes     int    `json:"likes"`
	Timestamp string `json:"timestamp"`
}

// Timestamp formats t the way every event carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
