// Command ghostpost runs the HTTP API: triage snapshot, per-thread
// briefs, the single send-gate endpoint the desktop client drives, and
// the email-ingested and attachment-upload endpoints.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ghostpost/internal/alertlog"
	"github.com/ignite/ghostpost/internal/api"
	"github.com/ignite/ghostpost/internal/attachments"
	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/brief"
	"github.com/ignite/ghostpost/internal/changelog"
	"github.com/ignite/ghostpost/internal/composer"
	"github.com/ignite/ghostpost/internal/config"
	"github.com/ignite/ghostpost/internal/contextfiles"
	"github.com/ignite/ghostpost/internal/llm"
	"github.com/ignite/ghostpost/internal/mailprovider"
	"github.com/ignite/ghostpost/internal/notify"
	"github.com/ignite/ghostpost/internal/repository/postgres"
	"github.com/ignite/ghostpost/internal/security/anomaly"
	"github.com/ignite/ghostpost/internal/security/injection"
	"github.com/ignite/ghostpost/internal/security/sendgate"
	"github.com/ignite/ghostpost/internal/threads"
	"github.com/ignite/ghostpost/internal/triage"
)

// checkPortAvailable verifies the target port is free before the server
// binds it, so a stale process fails fast with a clear message.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("pre-flight check failed: %v", err)
	}
	log.Printf("pre-flight check passed: port %d is available", port)

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	pingCancel()
	if err != nil {
		log.Fatalf("ping database: %v", err)
	}
	log.Println("connected to database")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	pingCtx, pingCancel = context.WithTimeout(context.Background(), 3*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		log.Fatalf("connect to redis at %s: %v", cfg.Redis.Addr, err)
	}
	log.Printf("connected to redis at %s", cfg.Redis.Addr)

	threadRepo := postgres.NewThreadRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	draftRepo := postgres.NewDraftRepo(db)
	eventRepo := postgres.NewSecurityEventRepo(db)
	auditRepo := postgres.NewAuditLogRepo(db)

	settingsStore, err := postgres.NewSettingsStore(context.Background(), db)
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	auditSvc := audit.New(eventRepo, auditRepo)
	triageSvc := triage.New(threadRepo, draftRepo, eventRepo, time.Now)
	briefSvc := brief.New(threadRepo, contactRepo, cfg.SES.FromAddress)

	ctx := context.Background()
	completer, err := llm.NewBedrockCompleter(ctx, cfg.Bedrock)
	if err != nil {
		log.Fatalf("init bedrock completer: %v", err)
	}
	composerSvc := composer.New(threadRepo, contactRepo, settingsStore, completer)

	rateLimit := cfg.Defaults.SendRateLimit
	rateStore := anomaly.NewRedisRateStore(redisClient)
	anomalySvc := anomaly.New(rateStore, contactRepo, auditSvc, time.Now)
	gate := sendgate.New(settingsStore, anomalySvc, auditSvc, threadRepo, rateLimit)

	sesProvider, err := mailprovider.NewSESProvider(ctx, cfg.SES)
	if err != nil {
		log.Fatalf("init SES provider: %v", err)
	}

	injectionSvc := injection.New(threadRepo, auditSvc)
	threadsSvc := threads.New(threadRepo, time.Now)

	alerts := alertlog.New(contextfiles.AlertLogPath(cfg.ContextRoot), time.Now)
	changes := changelog.New(contextfiles.ChangelogPath(cfg.ContextRoot), time.Now)
	notifySvc := notify.New(settingsStore, alerts, changes, notify.NewRedisPublisher(redisClient), time.Now)

	var attachmentStore api.AttachmentStore
	if cfg.Attachments.Enabled {
		s3Store, err := attachments.NewS3Store(ctx, cfg.Attachments)
		if err != nil {
			log.Fatalf("init attachment store: %v", err)
		}
		attachmentStore = s3Store
	}

	h := &api.Handlers{
		Triage:      triageSvc,
		Briefs:      briefSvc,
		Gate:        gate,
		Composer:    composerSvc,
		Mail:        sesProvider,
		Scan:        injectionSvc,
		Threads:     threadsSvc,
		Attachments: attachmentStore,
		Emails:      threadRepo,
		Notify:      notifySvc,
		From:        cfg.SES.FromAddress,
	}

	server := api.NewServer(h)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	<-done
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	redisClient.Close()
	log.Println("server stopped")
}
