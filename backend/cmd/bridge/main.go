package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqttbroker "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"

	"dispenser-bridge/backend/internal/api"
	"dispenser-bridge/backend/internal/bridge"
	"dispenser-bridge/backend/internal/config"
	"dispenser-bridge/backend/internal/detection"
	"dispenser-bridge/backend/internal/hub"
	"dispenser-bridge/backend/internal/migrations"
	"dispenser-bridge/backend/internal/serialio"
	"dispenser-bridge/backend/internal/services"
	"dispenser-bridge/backend/internal/session"
	apicommon "dispenser-bridge/backend/internal/shared/api"
	"dispenser-bridge/backend/internal/telemetry"
	"dispenser-bridge/backend/internal/thresholds"
	"dispenser-bridge/backend/pkg/dialect"
	"dispenser-bridge/backend/pkg/migrator"
	"dispenser-bridge/backend/pkg/mqtt"
	"dispenser-bridge/backend/pkg/router"
	"dispenser-bridge/backend/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const serialLineBuffer = 256

func main() {
	sigCtx, sigCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigCancel()

	config, err := config.New()
	if err != nil {
		fatalIfErr(slog.Default(), fmt.Errorf("failed to create config: %w", err))
	}

	defer func() {
		if err := config.Close(); err != nil {
			slog.Default().Error("failed to close config", utils.ErrAttr(err))
		}
	}()

	logger := getLogger(config)

	// Database
	if err := runMigrations(logger, config); err != nil {
		fatalIfErr(logger, fmt.Errorf("failed to run migrations: %w", err))
	}

	db, err := openDatabase(config)
	fatalIfErr(logger, err)

	defer utils.LogOnError(logger, db.Close, "failed to close database")

	// Builders
	rb := router.NewRouteBuilder(logger)

	mb, err := mqtt.NewMQTTBuilder(logger, mqtt.MQTTClientOptions{
		BrokerURL: config.MQTTBroker,
		ClientID:  config.MQTTClientID,
		Username:  config.MQTTUsername,
		Password:  config.MQTTPassword,
	})
	fatalIfErr(logger, err)

	telemetryPub, err := telemetry.NewPublisher(logger, mb)
	fatalIfErr(logger, err)

	// Serial link. An unopenable port is not fatal: the process keeps
	// serving clients, command writes surface the open error.
	conn, err := serialio.Dial(config.SerialPort, config.SerialBaud)
	if err != nil {
		logger.Error("failed to open serial port, continuing without link", utils.ErrAttr(err))
		conn = serialio.NewFailedConn(err)
	}

	defer utils.LogOnError(logger, conn.Close, "failed to close serial port")

	// Core wiring: hub and bridge reference each other.
	h := hub.New(logger)
	state := session.NewState()
	store := thresholds.NewStore(logger, db)
	br := bridge.New(logger, conn, h, store, telemetryPub, state)

	h.SetCommandHandler(br)
	h.SetOnConnect(func(c *hub.Client) { br.Replay(c) })

	go h.Run()

	detector := detection.New(logger, config.DetectionCommand, h)

	svc := services.NewServices(logger, db, mb, detector, h)
	apiHandler := api.NewHandler(logger, svc)
	registerHTTPHandlers(logger, rb, apiHandler, h)

	// Serial event loop
	lines := make(chan string, serialLineBuffer)
	reader := serialio.NewReader(logger, conn)

	go func() {
		if err := reader.Run(sigCtx, lines); err != nil {
			logger.Error("serial reader stopped", utils.ErrAttr(err))
		}
	}()

	go br.Run(sigCtx, lines)

	// MQTT client and embedded broker
	go func() {
		if err := mb.Connect(); err != nil {
			logger.Error("failed to connect to MQTT broker", utils.ErrAttr(err))
		}
	}()

	mqttAddr := fmt.Sprintf(":%d", config.MQTTBrokerPort)
	broker, err := getMQTTServer(logger, mqttAddr)
	fatalIfErr(logger, err)

	go func() {
		logger.Info("MQTT broker listening", slog.String("address", mqttAddr))

		if err := broker.Serve(); err != nil {
			logger.Error("MQTT broker failed", utils.ErrAttr(err))
			sigCancel()
		}
	}()

	// HTTP server
	httpAddr := fmt.Sprintf(":%d", config.Port)
	httpServer := apicommon.NewHTTPServer(logger, httpAddr, rb.Router())
	httpServer.StartOnBackground(sigCancel)

	// Wait for signal (either OS or some failure)
	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	if err := httpServer.ShutdownWithDefaultTimeout(); err != nil {
		logger.Error("http server shutdown failed", utils.ErrAttr(err))
	}

	if detector.Running() {
		if err := detector.Stop(); err != nil {
			logger.Error("failed to stop detection sidecar", utils.ErrAttr(err))
		}
	}

	mb.Disconnect()

	if err := broker.Close(); err != nil {
		logger.Error("mqtt broker shutdown failed", utils.ErrAttr(err))
	}

	logger.Info("server exited gracefully")
}

func getMQTTServer(l *slog.Logger, addr string) (*mqttbroker.Server, error) {
	server := mqttbroker.New(&mqttbroker.Options{
		Logger: l.With(slog.String("component", "mqtt-broker")),
	})
	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})

	if err := server.AddListener(tcp); err != nil {
		return nil, err
	}

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}

	return server, nil
}

// registerHTTPHandlers registers all HTTP handlers.
func registerHTTPHandlers(l *slog.Logger, rb *router.RouteBuilder, h *api.Handler, wsHub *hub.Hub) {
	l.Info("Registering HTTP handlers...")

	mw := apicommon.NewMiddlewareHandler(l)

	rb.Route("/api", func(rb *router.RouteBuilder) {
		rb.Use(mw.RequestIDMiddleware)
		rb.Use(mw.LoggerMiddleware)
		rb.Use(mw.RecoveryMiddleware)

		h.RegisterPing("/ping", rb)
		h.RegisterHealth("/health", rb)

		rb.Route("/grain-quality", func(rb *router.RouteBuilder) {
			h.RegisterStartDetection("/start", rb)
			h.RegisterStopDetection("/stop", rb)
			h.RegisterRecalibrateDetection("/recalibrate", rb)
			h.RegisterDetectionStatus("/status", rb)
		})
	})

	h.RegisterWebsocket("/ws", rb, wsHub.ServeWS)

	l.Info("HTTP handlers registered successfully")
}

func openDatabase(c *config.Config) (*sql.DB, error) {
	var driver string

	switch c.Dialect {
	case dialect.SQLite:
		driver = "sqlite3"
	case dialect.PostgreSQL:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", c.Dialect)
	}

	db, err := sql.Open(driver, c.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

func getLogger(config *config.Config) *slog.Logger {
	logOptions := slog.HandlerOptions{
		Level:       config.LogLevel,
		ReplaceAttr: utils.SlogReplacer,
	}

	logHandler := slog.NewJSONHandler(config.LogOutput, &logOptions)

	return slog.New(logHandler).With(slog.String("version", utils.GetVersionShort()))
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}

func runMigrations(l *slog.Logger, c *config.Config) error {
	l.Info("Running database migrations")

	mig, err := migrator.New(l, c.Dialect, c.Database, migrations.GetFS())
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := mig.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	l.Info("Database migrations completed successfully")

	return nil
}
