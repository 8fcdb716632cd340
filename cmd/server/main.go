package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/config"
	"github.com/ethicsbot/backend/internal/eventbus"
	"github.com/ethicsbot/backend/internal/handler"
	"github.com/ethicsbot/backend/internal/pkg/database"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/pkg/oracle"
	"github.com/ethicsbot/backend/internal/repository"
	"github.com/ethicsbot/backend/internal/router"
	"github.com/ethicsbot/backend/internal/service"
	"github.com/ethicsbot/backend/internal/service/conductor"
	"github.com/ethicsbot/backend/internal/service/dispatcher"
	"github.com/ethicsbot/backend/internal/service/evaluator"
	"github.com/ethicsbot/backend/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	participantRepo := repository.NewParticipantRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	if cfg.Data.RosterFile != "" {
		imported, err := service.ImportRoster(ctx, participantRepo, cfg.Data.RosterFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			klog.Warningf("名册文件不存在，跳过导入: %s", cfg.Data.RosterFile)
		case err != nil:
			log.Fatalf("Failed to import roster: %v", err)
		default:
			klog.V(6).Infof("名册导入完成: new=%d", imported)
		}
	}

	catalog, err := directive.Load(cfg.Data.PromptDir)
	if err != nil {
		log.Fatalf("Failed to load directives: %v", err)
	}

	client, err := oracle.New(ctx, cfg.Oracle)
	if err != nil {
		log.Fatalf("Failed to initialize oracle client: %v", err)
	}

	// 事件总线
	bus := eventbus.NewSessionEventBus()
	subscriber.NewSessionEventSubscriber(sessionRepo, evaluationRepo).Register(bus)

	// 初始化 Service
	sessionService := service.NewSessionService(
		participantRepo,
		conductor.NewRouter(client, catalog),
		dispatcher.New(client, catalog, dispatcher.Options{
			MaxAttempts:   cfg.Session.MaxAttempts,
			FallbackReply: cfg.Session.FallbackReply,
			Modifiers:     directive.NewModifiers(cfg.StyleModifiers),
		}),
		evaluator.New(client, catalog, evaluator.Options{
			Rubric:              cfg.Evaluation.Rubric,
			Obfuscate:           cfg.Evaluation.Obfuscate,
			HighEffortMinutes:   cfg.Evaluation.HighEffortMinutes,
			HighEffortResponses: cfg.Evaluation.HighEffortResponses,
			HighEffortWords:     cfg.Evaluation.HighEffortWords,
		}),
		bus,
	)

	// 设置路由
	r := router.Setup(cfg,
		handler.NewSessionHandler(sessionService),
		handler.NewDirectiveHandler(catalog),
		handler.NewEvaluationHandler(evaluationRepo),
	)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on port %s...", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		klog.V(6).Info("服务关闭中...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
