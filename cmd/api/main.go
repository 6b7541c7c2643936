package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"serveyz.org/internal/httpapi"
	"serveyz.org/internal/obs"
	"serveyz.org/internal/payment"
	"serveyz.org/internal/report"
	"serveyz.org/internal/store/pg"
	"serveyz.org/internal/stream"
	"serveyz.org/internal/survey"
	"serveyz.org/internal/user"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	deps := httpapi.Deps{
		Stream: stream.New(),
	}

	// Postgres when a DSN is set, in-memory stores otherwise (dev mode).
	var store *pg.Store
	if dsn := os.Getenv("SERVEYZ_PG_DSN"); dsn != "" {
		var err error
		store, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		deps.Users = store.Users()
		deps.Surveys = store.Surveys()
		deps.Reports = store.Reports()
		deps.Payments = store.Payments()
	} else {
		log.Print("SERVEYZ_PG_DSN not set, using in-memory stores")
		deps.Users = user.NewInMemory()
		deps.Surveys = survey.NewInMemory()
		deps.Reports = report.NewInMemory()
		deps.Payments = payment.NewInMemory()
	}

	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		deps.Intents = payment.NewStripeGateway(key)
	} else {
		log.Print("STRIPE_SECRET_KEY not set, payment intents disabled")
	}

	rp := httpapi.ReadyProbe{}
	if store != nil {
		rp.DB = store.DB()
	}
	api := httpapi.New(rp, version, deps)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting serveyz-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}
