package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medlink-data/internal/config"
	"medlink-data/internal/database"
	httpapi "medlink-data/internal/http"
	"medlink-data/internal/logger"
	"medlink-data/internal/repository"
	"medlink-data/internal/service"
	"medlink-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "medlink-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)
	versions := store.NewVersionTracker(kv)

	// Repos: Postgres when DB is reachable, in-memory fallback so dev
	// runs without a database still serve every page.
	var (
		db          *sql.DB
		projector   repository.ProjectorRoomsRepo
		turar       repository.TurarRoomsRepo
		connections repository.ConnectionsRepo
		mappings    repository.MappingsRepo
		mapped      repository.MappedRoomsRepo
		equipment   repository.EquipmentRepo
		users       repository.UsersRepo
	)

	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for medlink-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		projector = repository.NewPostgresProjectorRoomsRepo(db)
		turar = repository.NewPostgresTurarRoomsRepo(db)
		connections = repository.NewPostgresConnectionsRepo(db)
		mappings = repository.NewPostgresMappingsRepo(db)
		mapped = repository.NewPostgresMappedRoomsRepo(db)
		equipment = repository.NewPostgresEquipmentRepo(db)
		users = repository.NewPostgresUsersRepo(db)
	} else {
		memProjector := repository.NewMemoryProjectorRoomsRepo()
		memTurar := repository.NewMemoryTurarRoomsRepo()
		memConnections := repository.NewMemoryConnectionsRepo()
		memMapped := repository.NewMemoryMappedRoomsRepo()
		projector = memProjector
		turar = memTurar
		connections = memConnections
		mapped = memMapped
		mappings = repository.NewMemoryMappingsRepo(memConnections, memProjector, memTurar, memMapped)
		equipment = repository.NewMemoryEquipmentRepo(memProjector)
		users = repository.NewMemoryUsersRepo()
	}

	datasetClient := service.NewDatasetClient(cfg.Sync.BaseURL, log)

	rooms := service.NewRoomsService(projector, turar, versions, log)
	linking := service.NewLinkingService(connections, projector, turar, mapped, versions, log)
	importer := service.NewImportService(projector, turar, versions, log)
	exporter := service.NewExportService(projector, connections, log)
	syncer := service.NewSyncService(datasetClient, cfg.Sync.ProjectorFile, cfg.Sync.TurarFile, projector, turar, versions, log)
	mapping := service.NewMappingService(mappings, mapped, projector, turar, connections, versions, log)
	admin := service.NewAdminService(equipment, users, log)

	router := httpapi.NewRouter(log)
	router.RegisterRoutes(
		httpapi.NewRoomHandler(rooms, log),
		httpapi.NewConnectionHandler(linking, log),
		httpapi.NewImportExportHandler(importer, exporter, log),
		httpapi.NewJobHandler(syncer, linking, mapping, log),
		httpapi.NewMappingHandler(mapping, log),
		httpapi.NewAdminHandler(admin, log),
		httpapi.NewSystemHandler(versions, log),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server exited", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
