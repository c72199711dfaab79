package app

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deviceloan/activity"
	"deviceloan/config"
	"deviceloan/engine"
	"deviceloan/identity"
	"deviceloan/logger"
	"deviceloan/session"
	"deviceloan/state"
	"deviceloan/store"
)

type Ctx = gin.Context
type H = gin.H

// notificationTTL is how long a transient notification stays in the queue.
const notificationTTL = 6 * time.Second

// App aggregates every dependency the controllers need.
type App struct {
	Router    *gin.Engine
	RDB       *redis.Client
	Gateway   store.Gateway
	State     *state.AppState
	Engine    *engine.Engine
	Approvals *engine.ApprovalEngine
	Resolver  *identity.Resolver
	Sink      *activity.Sink
	Notifier  *activity.Notifier
	Sessions  session.Store
	Config    config.Config
	Log       *zap.Logger
}

func MustNew() *App {
	cfg := config.Load()

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("logger: %v", err)
	}
	zlog := logger.Logger

	gw := pickGateway(cfg, zlog)

	// --- Redis (sessions) ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zlog.Fatal("redis", zap.Error(err))
	}

	// --- Projections ---
	st := state.New()
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer loadCancel()
	if err := st.LoadInitial(loadCtx, gw); err != nil {
		zlog.Fatal("load initial data", zap.Error(err))
	}

	notifier := activity.NewNotifier(notificationTTL)
	sink := activity.NewSink(gw, st, notifier, zlog)

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:    r,
		RDB:       rdb,
		Gateway:   gw,
		State:     st,
		Engine:    engine.New(gw, st, sink, zlog),
		Approvals: engine.NewApprovalEngine(gw, st, sink, zlog),
		Resolver:  identity.NewResolver(st, cfg.AdminUsername, cfg.AdminPassword, zlog),
		Sink:      sink,
		Notifier:  notifier,
		Sessions:  session.NewRedisStore(rdb, cfg.SessionTTL),
		Config:    cfg,
		Log:       zlog,
	}
}

// pickGateway selects the persistence backend: the sheets web app when
// configured, postgres when a DSN is given, else the in-memory demo dataset.
func pickGateway(cfg config.Config, zlog *zap.Logger) store.Gateway {
	switch {
	case cfg.SheetsURL != "":
		zlog.Info("using sheets store", zap.String("url", cfg.SheetsURL))
		return store.NewSheetsGateway(cfg.SheetsURL)
	case cfg.DatabaseURL != "":
		gw, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("postgres store", zap.Error(err))
		}
		zlog.Info("using postgres store")
		return gw
	default:
		zlog.Warn("no store configured, running in DEMO mode; nothing will be saved")
		return store.NewDemoGateway()
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	logger.Sync()
}
