package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"deediq/internal/forum"
)

// Client calls the forum service over an insecure connection.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Dial connects to addr. Extra options are appended after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect grpc %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// WithToken returns a client that authenticates every call with token.
func (c *Client) WithToken(token string) *Client {
	return &Client{conn: c.conn, token: token}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}) error {
	return c.conn.Invoke(c.outgoing(ctx), "/"+ServiceName+"/"+method, in, out)
}

func call[Resp any](ctx context.Context, c *Client, method string, in interface{}) (*Resp, error) {
	out := new(Resp)
	if err := c.invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCategories(ctx context.Context) (*CategoriesResponse, error) {
	return call[CategoriesResponse](ctx, c, "ListCategories", &Empty{})
}

func (c *Client) ListThreads(ctx context.Context, categoryID string) (*ThreadsResponse, error) {
	return call[ThreadsResponse](ctx, c, "ListThreads", &ListThreadsRequest{CategoryID: categoryID})
}

func (c *Client) GetThread(ctx context.Context, threadID string) (*forum.ThreadDetail, error) {
	return call[forum.ThreadDetail](ctx, c, "GetThread", &ThreadRequest{ThreadID: threadID})
}

func (c *Client) CreateThread(ctx context.Context, req *CreateThreadRequest) (*IDResponse, error) {
	return call[IDResponse](ctx, c, "CreateThread", req)
}

func (c *Client) CreatePost(ctx context.Context, req *CreatePostRequest) (*IDResponse, error) {
	return call[IDResponse](ctx, c, "CreatePost", req)
}

func (c *Client) EditPost(ctx context.Context, req *EditPostRequest) error {
	_, err := call[Empty](ctx, c, "EditPost", req)
	return err
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := call[Empty](ctx, c, "DeletePost", &PostRequest{PostID: postID})
	return err
}

func (c *Client) LikePost(ctx context.Context, postID string) (*LikeResponse, error) {
	return call[LikeResponse](ctx, c, "LikePost", &PostRequest{PostID: postID})
}

func (c *Client) UnlikePost(ctx context.Context, postID string) (*LikeResponse, error) {
	return call[LikeResponse](ctx, c, "UnlikePost", &PostRequest{PostID: postID})
}

func (c *Client) UserThreads(ctx context.Context, userID string) (*ThreadsResponse, error) {
	return call[ThreadsResponse](ctx, c, "UserThreads", &UserRequest{UserID: userID})
}

func (c *Client) UserPosts(ctx context.Context, userID string) (*PostsResponse, error) {
	return call[PostsResponse](ctx, c, "UserPosts", &UserRequest{UserID: userID})
}

func (c *Client) UserLikedPosts(ctx context.Context, userID string) (*PostsResponse, error) {
	return call[PostsResponse](ctx, c, "UserLikedPosts", &UserRequest{UserID: userID})
}

// StreamEvents calls fn for every event on subject until ctx ends, the
// server closes the stream or fn returns an error.
func (c *Client) StreamEvents(ctx context.Context, subject string, fn func(*Event) error) error {
	desc := &forumServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(c.outgoing(ctx), desc, "/"+ServiceName+"/"+desc.StreamName)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&StreamEventsRequest{Subject: subject}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	// Wait for the server to subscribe before reporting events.
	if _, err := stream.Header(); err != nil {
		return err
	}

	for {
		ev := new(Event)
		if err := stream.RecvMsg(ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
