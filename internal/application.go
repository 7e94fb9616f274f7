package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/YoonKyungHan/baseball/internal/config"
	"github.com/YoonKyungHan/baseball/internal/repository"
	"github.com/YoonKyungHan/baseball/internal/repository/storage"
	"github.com/YoonKyungHan/baseball/internal/service"
	"github.com/YoonKyungHan/baseball/internal/usecase"
	"github.com/YoonKyungHan/baseball/transport/kafka"
	"github.com/YoonKyungHan/baseball/transport/rest"
	"github.com/YoonKyungHan/baseball/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	var producer *kafka.Producer
	if conf.Kafka.Enabled() {
		producer = kafka.NewProducer(logger, conf.Kafka.Brokers, conf.Kafka.GameTopic, conf.Kafka.UserTopic)
		defer producer.Close()

		log.Info("Kafka event streaming enabled", "brokers", conf.Kafka.Brokers)
	}

	playerStore := repository.NewPlayerStore()
	roomStore := repository.NewRoomStore()
	historyRepo := repository.NewHistoryRepository(redisStorage)

	registry := service.NewRegistry(logger, playerStore)
	bots := service.NewBotService()

	var history *service.HistoryService
	if producer != nil {
		history = service.NewHistoryService(logger, historyRepo, producer)
	} else {
		history = service.NewHistoryService(logger, historyRepo, nil)
	}

	engine := usecase.NewEngine(logger, playerStore, roomStore, registry, bots, history, usecase.Timing{
		PlayerEviction: conf.Game.PlayerEvictionGrace,
		RoomDeletion:   conf.Game.RoomDeletionGrace,
		MatchEndDelay:  conf.Game.MatchEndDelay,
		NextRoundDelay: conf.Game.NextRoundDelay,
	})
	go engine.Run(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(logger, conf.HTTPPort, history); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, engine)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
