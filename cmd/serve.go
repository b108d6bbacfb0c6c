package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/services"
	"github.com/SaiNageswarS/krishi-boot/voice"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP and gRPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getCancellableContext()
		a := bootstrap(ctx, true)
		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	handler := services.ProvideHTTPHandler(a.chat, services.WithTokenDelay(a.cfg.TokenDelay()))
	router := services.NewRouter(handler, newVoiceRelay(a))

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(getStreamingOptimizations()...)
	services.RegisterChatServiceServer(grpcServer, services.ProvideChatGRPCService(a.chat))

	lis, err := net.Listen("tcp", a.cfg.GRPCPort)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", a.cfg.GRPCPort))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newVoiceRelay leaves speech nil when GROQ_API_KEY is missing; calls then
// report the failure to the client instead of crashing.
func newVoiceRelay(a *app) *voice.Relay {
	var (
		stt voice.Transcriber
		tts voice.Synthesizer
	)

	speech, err := voice.NewGroqSpeechClient()
	if err != nil {
		logger.Error("Speech services disabled", zap.Error(err))
	} else {
		stt, tts = speech, speech
	}

	return voice.NewRelay(a.chat, stt, tts)
}

func getStreamingOptimizations() []grpc.ServerOption {
	return []grpc.ServerOption{
		// Increase message size limits for large responses
		grpc.MaxRecvMsgSize(20 * 1024 * 1024), // 20MB
		grpc.MaxSendMsgSize(20 * 1024 * 1024), // 20MB

		// Configure keepalive for streaming connections
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     30 * time.Second,
			MaxConnectionAge:      5 * time.Minute,
			MaxConnectionAgeGrace: 10 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	}
}
