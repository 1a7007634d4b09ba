package grpc

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"deediq/internal/apperror"
	"deediq/internal/auth"
	"deediq/internal/forum"
	"deediq/internal/messaging"
)

const ServiceName = "deediq.forum.ForumService"

type Empty struct{}

type ListThreadsRequest struct {
	CategoryID string `json:"category_id"`
}

type ThreadRequest struct {
	ThreadID string `json:"thread_id"`
}

type CreateThreadRequest struct {
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type CreatePostRequest struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
}

type EditPostRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

type PostRequest struct {
	PostID string `json:"post_id"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type LikeResponse struct {
	PostID string `json:"post_id"`
	Likes  int    `json:"likes"`
}

type CategoriesResponse struct {
	Categories []forum.CategorySummary `json:"categories"`
}

type ThreadsResponse struct {
	Threads []forum.ThreadSummary `json:"threads"`
}

type PostsResponse struct {
	Posts []forum.UserPost `json:"posts"`
}

type StreamEventsRequest struct {
	// Subject defaults to every forum event.
	Subject string `json:"subject"`
}

type Event struct {
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

// ForumServer is the service implemented by *ForumService.
type ForumServer interface {
	ListCategories(context.Context, *Empty) (*CategoriesResponse, error)
	ListThreads(context.Context, *ListThreadsRequest) (*ThreadsResponse, error)
	GetThread(context.Context, *ThreadRequest) (*forum.ThreadDetail, error)
	CreateThread(context.Context, *CreateThreadRequest) (*IDResponse, error)
	CreatePost(context.Context, *CreatePostRequest) (*IDResponse, error)
	EditPost(context.Context, *EditPostRequest) (*Empty, error)
	DeletePost(context.Context, *PostRequest) (*Empty, error)
	LikePost(context.Context, *PostRequest) (*LikeResponse, error)
	UnlikePost(context.Context, *PostRequest) (*LikeResponse, error)
	UserThreads(context.Context, *UserRequest) (*ThreadsResponse, error)
	UserPosts(context.Context, *UserRequest) (*PostsResponse, error)
	UserLikedPosts(context.Context, *UserRequest) (*PostsResponse, error)
	StreamEvents(*StreamEventsRequest, grpc.ServerStream) error
}

// EventSource is satisfied by *messaging.Client.
type EventSource interface {
	Subscribe(subject string, handler func(subject string, data []byte)) (messaging.Subscription, error)
}

type ForumService struct {
	forum  *forum.Service
	tokens *auth.Issuer
	events EventSource
}

// NewForumService returns the gRPC forum service. events may be nil, in
// which case StreamEvents reports Unavailable.
func NewForumService(forumSvc *forum.Service, tokens *auth.Issuer, events EventSource) *ForumService {
	return &ForumService{forum: forumSvc, tokens: tokens, events: events}
}

// NewServer builds a gRPC server with the forum service, the standard health
// service and reflection registered. Callers are resolved from the
// "authorization" metadata by interceptors.
func NewServer(svc *ForumService, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(svc.unaryCaller),
		grpc.ChainStreamInterceptor(svc.streamCaller),
	)
	server := grpc.NewServer(opts...)
	server.RegisterService(&forumServiceDesc, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	// Reflection lists ForumService but cannot describe it: the service is
	// JSON-coded and has no proto file descriptor. Health is fully described.
	reflection.Register(server)
	return server
}

func (s *ForumService) ListCategories(ctx context.Context, _ *Empty) (*CategoriesResponse, error) {
	categories, err := s.forum.ListCategories(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CategoriesResponse{Categories: categories}, nil
}

func (s *ForumService) ListThreads(ctx context.Context, req *ListThreadsRequest) (*ThreadsResponse, error) {
	threads, err := s.forum.ListThreads(ctx, req.CategoryID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ThreadsResponse{Threads: threads}, nil
}

func (s *ForumService) GetThread(ctx context.Context, req *ThreadRequest) (*forum.ThreadDetail, error) {
	detail, err := s.forum.GetThread(ctx, req.ThreadID, auth.CallerFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return detail, nil
}

func (s *ForumService) CreateThread(ctx context.Context, req *CreateThreadRequest) (*IDResponse, error) {
	id, err := s.forum.CreateThread(ctx, auth.CallerFromContext(ctx), req.CategoryID, req.Title, req.Content)
	if err != nil {
		return nil, toStatus(err)
	}
	return &IDResponse{ID: id}, nil
}

func (s *ForumService) CreatePost(ctx context.Context, req *CreatePostRequest) (*IDResponse, error) {
	id, err := s.forum.CreatePost(ctx, auth.CallerFromContext(ctx), req.ThreadID, req.Content)
	if err != nil {
		return nil, toStatus(err)
	}
	return &IDResponse{ID: id}, nil
}

func (s *ForumService) EditPost(ctx context.Context, req *EditPostRequest) (*Empty, error) {
	if err := s.forum.EditPost(ctx, auth.CallerFromContext(ctx), req.PostID, req.Content); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *ForumService) DeletePost(ctx context.Context, req *PostRequest) (*Empty, error) {
	if err := s.forum.DeletePost(ctx, auth.CallerFromContext(ctx), req.PostID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *ForumService) LikePost(ctx context.Context, req *PostRequest) (*LikeResponse, error) {
	likes, err := s.forum.LikePost(ctx, auth.CallerFromContext(ctx), req.PostID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LikeResponse{PostID: req.PostID, Likes: likes}, nil
}

func (s *ForumService) UnlikePost(ctx context.Context, req *PostRequest) (*LikeResponse, error) {
	likes, err := s.forum.UnlikePost(ctx, auth.CallerFromContext(ctx), req.PostID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LikeResponse{PostID: req.PostID, Likes: likes}, nil
}

func (s *ForumService) UserThreads(ctx context.Context, req *UserRequest) (*ThreadsResponse, error) {
	threads, err := s.forum.UserThreads(ctx, req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ThreadsResponse{Threads: threads}, nil
}

func (s *ForumService) UserPosts(ctx context.Context, req *UserRequest) (*PostsResponse, error) {
	posts, err := s.forum.UserPosts(ctx, req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &PostsResponse{Posts: posts}, nil
}

func (s *ForumService) UserLikedPosts(ctx context.Context, req *UserRequest) (*PostsResponse, error) {
	posts, err := s.forum.UserLikedPosts(ctx, auth.CallerFromContext(ctx), req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &PostsResponse{Posts: posts}, nil
}

// StreamEvents relays forum events to the client until it disconnects.
func (s *ForumService) StreamEvents(req *StreamEventsRequest, stream grpc.ServerStream) error {
	if s.events == nil {
		return status.Error(codes.Unavailable, "event stream is not configured")
	}
	subject := req.Subject
	if subject == "" {
		subject = messaging.SubjectForumAll
	}
	if !strings.HasPrefix(subject, "forum.") {
		return status.Errorf(codes.InvalidArgument, "subject %q is outside forum events", subject)
	}

	events := make(chan *Event, 64)
	sub, err := s.events.Subscribe(subject, func(subject string, data []byte) {
		select {
		case events <- &Event{Subject: subject, Data: json.RawMessage(data)}:
		default:
			log.Printf("Dropping %s event for slow stream client", subject)
		}
	})
	if err != nil {
		return status.Errorf(codes.Internal, "failed to subscribe to events: %v", err)
	}
	defer sub.Unsubscribe()

	// Headers go out now so the client knows the subscription is live.
	if err := stream.SendHeader(metadata.Pairs("subject", subject)); err != nil {
		return err
	}

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case ev := <-events:
			if err := stream.SendMsg(ev); err != nil {
				log.Printf("Failed to send stream event: %v", err)
				return err
			}
		}
	}
}

func (s *ForumService) callerContext(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, nil
	}
	values := md.Get("authorization")
	if len(values) == 0 || values[0] == "" {
		return ctx, nil
	}
	token := strings.TrimPrefix(values[0], "Bearer ")
	caller, err := s.tokens.Caller(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "Invalid token")
	}
	return auth.WithCaller(ctx, caller), nil
}

func (s *ForumService) unaryCaller(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := s.callerContext(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type callerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (c *callerStream) Context() context.Context { return c.ctx }

func (s *ForumService) streamCaller(srv interface{}, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.callerContext(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &callerStream{ServerStream: ss, ctx: ctx})
}

// toStatus maps failure kinds onto gRPC codes. Internal failures are logged
// and hidden from the client.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch apperror.KindOf(err) {
	case apperror.Validation:
		code = codes.InvalidArgument
	case apperror.NotFound:
		code = codes.NotFound
	case apperror.Forbidden:
		code = codes.PermissionDenied
	case apperror.Conflict:
		code = codes.AlreadyExists
	case apperror.Auth:
		code = codes.Unauthenticated
	case apperror.Unavailable:
		code = codes.Unavailable
	default:
		log.Printf("gRPC internal error: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
