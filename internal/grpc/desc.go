package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// unary adapts a typed ForumServer method to grpc's method handler shape.
func unary[Req any, Resp any](name string, call func(ForumServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ForumServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ForumServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func streamEventsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(StreamEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ForumServer).StreamEvents(in, stream)
}

var forumServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ForumServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListCategories", ForumServer.ListCategories),
		unary("ListThreads", ForumServer.ListThreads),
		unary("GetThread", ForumServer.GetThread),
		unary("CreateThread", ForumServer.CreateThread),
		unary("CreatePost", ForumServer.CreatePost),
		unary("EditPost", ForumServer.EditPost),
		unary("DeletePost", ForumServer.DeletePost),
		unary("LikePost", ForumServer.LikePost),
		unary("UnlikePost", ForumServer.UnlikePost),
		unary("UserThreads", ForumServer.UserThreads),
		unary("UserPosts", ForumServer.UserPosts),
		unary("UserLikedPosts", ForumServer.UserLikedPosts),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			Handler:       streamEventsHandler,
			ServerStreams: true,
		},
	},
}
