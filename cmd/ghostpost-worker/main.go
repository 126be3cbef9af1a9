// Command ghostpost-worker runs the background passes the API process
// never drives itself: the follow-up scheduler and the full context
// file refresh, plus the stale-thread notification each scheduler tick
// produces. Both polls are wrapped in a distributed lock so multiple
// replicas never run the same pass at once; the lock is a scheduling
// optimization, not a correctness requirement, since both passes are
// naturally idempotent.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ghostpost/internal/alertlog"
	"github.com/ignite/ghostpost/internal/changelog"
	"github.com/ignite/ghostpost/internal/config"
	"github.com/ignite/ghostpost/internal/contextfiles"
	"github.com/ignite/ghostpost/internal/notify"
	"github.com/ignite/ghostpost/internal/pkg/distlock"
	"github.com/ignite/ghostpost/internal/repository/postgres"
	"github.com/ignite/ghostpost/internal/threads"
)

const (
	followUpInterval = 5 * time.Minute
	contextInterval  = 2 * time.Minute
	followUpLockTTL  = 4 * time.Minute
	contextLockTTL   = 90 * time.Second
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

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
	activityRepo := postgres.NewActivityRepo(db)
	outcomeRepo := postgres.NewOutcomeRepo(db)
	researchRepo := postgres.NewResearchRepo()

	settingsStore, err := postgres.NewSettingsStore(context.Background(), db)
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	threadsSvc := threads.New(threadRepo, time.Now)

	alerts := alertlog.New(contextfiles.AlertLogPath(cfg.ContextRoot), time.Now)
	changes := changelog.New(contextfiles.ChangelogPath(cfg.ContextRoot), time.Now)
	publisher := notify.NewRedisPublisher(redisClient)
	notifySvc := notify.New(settingsStore, alerts, changes, publisher, time.Now)

	contextSvc := contextfiles.New(
		cfg.ContextRoot,
		threadRepo,
		contactRepo,
		postgres.NewReverseChronDraftRepo(draftRepo),
		eventRepo,
		activityRepo,
		outcomeRepo,
		researchRepo,
		settingsStore,
		alerts,
		time.Now,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go pollFollowUps(ctx, threadsSvc, threadRepo, notifySvc, redisClient, db)
	go pollContextRefresh(ctx, contextSvc, redisClient, db)

	log.Println("worker started")
	<-done
	log.Println("shutting down...")
	cancel()
	redisClient.Close()
}

func pollFollowUps(ctx context.Context, svc *threads.Service, repo *postgres.ThreadRepo, notifySvc *notify.Service, redisClient *redis.Client, db *sql.DB) {
	ticker := time.NewTicker(followUpInterval)
	defer ticker.Stop()

	runFollowUps(ctx, svc, repo, notifySvc, redisClient, db)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runFollowUps(ctx, svc, repo, notifySvc, redisClient, db)
		}
	}
}

func runFollowUps(ctx context.Context, svc *threads.Service, repo *postgres.ThreadRepo, notifySvc *notify.Service, redisClient *redis.Client, db *sql.DB) {
	lock := distlock.NewLock(redisClient, db, "follow-up-scheduler", followUpLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("follow-up scheduler: lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(ctx)

	now := time.Now()
	due, err := repo.ListWaitingReplyOverdue(ctx, now)
	if err != nil {
		log.Printf("follow-up scheduler: %v", err)
		return
	}

	n, err := svc.RunFollowUpScheduler(ctx)
	if err != nil {
		log.Printf("follow-up scheduler: %v", err)
		return
	}
	if n == 0 {
		return
	}
	log.Printf("follow-up scheduler: advanced %d thread(s) to FOLLOW_UP", n)

	for _, t := range due {
		if _, err := notifySvc.NotifyStaleThread(ctx, t.ID, t.Subject, t.OverdueDays(now)); err != nil {
			log.Printf("follow-up scheduler: notify thread %d: %v", t.ID, err)
		}
	}
}

func pollContextRefresh(ctx context.Context, svc *contextfiles.Service, redisClient *redis.Client, db *sql.DB) {
	ticker := time.NewTicker(contextInterval)
	defer ticker.Stop()

	runContextRefresh(ctx, svc, redisClient, db)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runContextRefresh(ctx, svc, redisClient, db)
		}
	}
}

func runContextRefresh(ctx context.Context, svc *contextfiles.Service, redisClient *redis.Client, db *sql.DB) {
	lock := distlock.NewLock(redisClient, db, "context-refresh", contextLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("context refresh: lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(ctx)

	paths, err := svc.WriteAll(ctx)
	if err != nil {
		log.Printf("context refresh: %v", err)
		return
	}
	log.Printf("context refresh: wrote %d file(s)", len(paths))
}
