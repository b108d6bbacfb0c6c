package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/agentboot"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ChatService_Chat_FullMethodName       = "/krishi.v1.ChatService/Chat"
	ChatService_ChatStream_FullMethodName = "/krishi.v1.ChatService/ChatStream"
)

// ChatServiceServer is the gRPC surface of the chat endpoint. Payloads are
// google.protobuf.Struct values shaped like the JSON API.
type ChatServiceServer interface {
	Chat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ChatStream(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "krishi.v1.ChatService",
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Chat",
			Handler:    chatHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ChatStream",
			Handler:       chatStreamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "krishi/v1/chat.proto",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

func chatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServiceServer).Chat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ChatService_Chat_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChatServiceServer).Chat(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func chatStreamHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServiceServer).ChatStream(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// ChatGRPCService answers chat requests over gRPC.
type ChatGRPCService struct {
	chat *ChatService
	now  func() time.Time
}

func ProvideChatGRPCService(chat *ChatService) *ChatGRPCService {
	return &ChatGRPCService{chat: chat, now: time.Now}
}

func (s *ChatGRPCService) Chat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeChatStruct(in)
	if err != nil {
		return nil, err
	}

	reply, _ := s.chat.Process(ctx, req, nil)
	return s.replyStruct("response", reply)
}

// ChatStream sends agent progress events as they happen, then one final
// "response" message, or an "error" message when the agent failed.
func (s *ChatGRPCService) ChatStream(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	req, err := decodeChatStruct(in)
	if err != nil {
		return err
	}

	reply, err := s.chat.Process(stream.Context(), req, &streamProgressReporter{stream: stream})
	kind := "response"
	if err != nil {
		kind = "error"
	}

	out, err := s.replyStruct(kind, reply)
	if err != nil {
		return err
	}
	return stream.Send(out)
}

func (s *ChatGRPCService) replyStruct(kind string, reply *ChatReply) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"type":       kind,
		"response":   reply.Text,
		"session_id": reply.SessionID,
		"language":   reply.Language,
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("Failed to build chat response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return out, nil
}

func decodeChatStruct(in *structpb.Struct) (*ChatRequest, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed chat request")
	}

	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed chat request: "+err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, status.Error(codes.InvalidArgument, "message is required")
	}
	return &req, nil
}

type streamProgressReporter struct {
	stream grpc.ServerStreamingServer[structpb.Struct]
}

func (r *streamProgressReporter) Send(event *agentboot.ProgressEvent) error {
	msg, err := structpb.NewStruct(progressFields(event))
	if err != nil {
		logger.Error("Failed to encode progress event", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}
	return r.stream.Send(msg)
}

func progressFields(event *agentboot.ProgressEvent) map[string]any {
	fields := map[string]any{
		"type":      "progress",
		"event":     string(event.Type),
		"timestamp": event.Timestamp,
	}
	if event.State != "" {
		fields["state"] = string(event.State)
	}
	if event.ToolName != "" {
		fields["tool_name"] = event.ToolName
	}
	if len(event.Arguments) > 0 {
		fields["arguments"] = map[string]any(event.Arguments)
	}
	if event.Content != "" {
		fields["content"] = event.Content
	}
	if event.Code != "" {
		fields["code"] = event.Code
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.Result != nil {
		fields["iterations"] = event.Result.Iterations
		used := make([]any, 0, len(event.Result.ToolsUsed))
		for _, name := range event.Result.ToolsUsed {
			used = append(used, name)
		}
		fields["tools_used"] = used
	}
	return fields
}
