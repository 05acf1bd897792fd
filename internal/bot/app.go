package bot

import (
	"context"
	"errors"
	"fmt"
	"issuebot/internal/types"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// HandlerTimeout bounds the work done for a single inbound message.
	HandlerTimeout = 2 * time.Minute
	SweepInterval  = time.Minute
)

// Run consumes inbound messages until ctx is done or the channel is closed,
// handling each message in its own goroutine. It returns after every
// in-flight handler has finished. This is a blocking call.
func Run(ctx context.Context, updates <-chan types.InboundMessage, h *Handler) {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Prompts.RunSweeper(ctx, SweepInterval, func(p Prompt) {
			hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HandlerTimeout)
			defer cancel()
			h.abandonPrompt(hctx, p)
		})
	}()

	log.Info("issuebot is polling for messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("issuebot stopping")
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				// in-flight handlers get to finish after shutdown starts
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HandlerTimeout)
				defer cancel()
				h.HandleMessage(hctx, msg)
			}()
		}
	}
}

// Router exposes the liveness endpoint.
func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","pending_prompts":%d}`, h.Prompts.Pending())
	})
	return mux
}

// RunHealthServerInterruptible runs the health endpoint in the background and
// immediately returns a chan to the caller. The caller sends on stop to shut the
// server down gracefully; done yields the terminal error, if any.
func RunHealthServerInterruptible(port int, h *Handler) (stop chan<- struct{}, done <-chan error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Router(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCh := make(chan struct{})
	doneCh := make(chan error, 1)

	go func() {
		log.Printf("health endpoint listening on %s\n", srv.Addr)
		err := srv.ListenAndServe()
		// http.ErrServerClosed is returned on Shutdown; treat that as clean exit
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneCh <- err
			return
		}
		doneCh <- nil
	}()

	go func() {
		<-stopCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	return stopCh, doneCh
}
