package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jqnatividad/qsv-stats/pkg/config"
	"github.com/jqnatividad/qsv-stats/pkg/server"
	"github.com/jqnatividad/qsv-stats/pkg/store"
	"github.com/jqnatividad/qsv-stats/pkg/store/badger"
	"github.com/jqnatividad/qsv-stats/pkg/store/memory"
)

const gcInterval = 10 * time.Minute

func main() {
	var (
		addr        = flag.String("addr", ":"+config.DefaultPort, "listen address")
		dataDir     = flag.String("data-dir", "./data/qsv-stats", "snapshot database directory")
		memoryStore = flag.Bool("memory-store", false, "keep snapshots in memory instead of on disk")
		maxMemoryMB = flag.Int64("max-memory-mb", 0, "BadgerDB memory budget in MB (0 = default)")
	)
	flag.Parse()

	log.Println("🚀 Starting qsv-stats server...")

	var (
		st  store.Store
		bst *badger.Store
	)
	if *memoryStore {
		st = memory.New()
		log.Println("💾 Snapshot store: in-memory")
	} else {
		if err := os.MkdirAll(*dataDir, 0755); err != nil {
			log.Fatalf("❌ Failed to create data directory: %v", err)
		}
		var err error
		bst, err = badger.New(badger.Config{Path: *dataDir, MaxMemoryMB: *maxMemoryMB})
		if err != nil {
			log.Fatalf("❌ Failed to open snapshot store: %v", err)
		}
		st = bst
		log.Printf("💾 Snapshot store: BadgerDB at %s", *dataDir)
	}
	defer st.Close()

	hub := server.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	log.Println("📡 WebSocket hub started for dataset update streaming")

	if bst != nil {
		wg.Add(1)
		go runBadgerGC(ctx, bst, &wg)
	}

	srv := server.New(st, hub)
	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv.Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	go func() {
		log.Printf("🌐 Server listening on %s", *addr)
		log.Println("📡 API endpoints:")
		log.Println("   GET    /api/v1/datasets                  - List datasets and snapshots")
		log.Println("   POST   /api/v1/datasets/{name}/samples   - Ingest samples")
		log.Println("   GET    /api/v1/datasets/{name}/stats     - Full statistics readout")
		log.Println("   POST   /api/v1/datasets/{name}/merge     - Fold another dataset in")
		log.Println("   POST   /api/v1/datasets/{name}/snapshot  - Save aggregate state")
		log.Println("   POST   /api/v1/datasets/{name}/restore   - Restore saved state")
		log.Println("   GET    /api/v1/stream                    - WebSocket update stream")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutdown signal received...")

	// Cancel first so the hub and GC loops stop before wg.Wait.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server shutdown warning: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("✅ Background tasks stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("⚠️  Some background tasks did not stop in time")
	}

	log.Println("👋 Server exited cleanly")
}

// runBadgerGC reclaims value log space periodically. Snapshots are
// whole-dataset blobs that get replaced on every save, so without GC
// the value log grows with every snapshot.
func runBadgerGC(ctx context.Context, st *badger.Store, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			if err := st.RunGC(0.5); err != nil {
				log.Printf("🗑️  GC completed in %v (no rewrite needed)", time.Since(start).Round(time.Millisecond))
			} else {
				log.Printf("✅ GC completed in %v (disk space reclaimed)", time.Since(start).Round(time.Millisecond))
			}
		case <-ctx.Done():
			return
		}
	}
}
