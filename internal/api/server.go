package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/suspectuso/ton-mintgate/internal/auth"
	"github.com/suspectuso/ton-mintgate/internal/minter"
)

const maxBodyBytes = 1 << 20

// Server exposes the mint service over HTTP
type Server struct {
	svc      *minter.Service
	verifier *auth.Verifier
	log      *slog.Logger

	server *http.Server
}

// NewServer creates a new API server
func NewServer(svc *minter.Service, verifier *auth.Verifier, log *slog.Logger) *Server {
	return &Server{
		svc:      svc,
		verifier: verifier,
		log:      log,
	}
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /v1/collections/{collection}", s.handleGetCollection)
	mux.HandleFunc("POST /v1/collections/{collection}/phases", s.handleAppendPhase)
	mux.HandleFunc("PATCH /v1/collections/{collection}/phases/{index}", s.handleSetPhaseActive)
	mux.HandleFunc("PUT /v1/collections/{collection}/fees", s.handleUpdateFee)
	mux.HandleFunc("POST /v1/collections/{collection}/mint", s.handleMint)
	mux.HandleFunc("GET /v1/collections/{collection}/wallets/{wallet}", s.handleWalletStats)
	mux.HandleFunc("GET /v1/collections/{collection}/receipts", s.handleReceipts)
	mux.HandleFunc("POST /v1/ledger/credit", s.handleCredit)
	mux.HandleFunc("GET /v1/ledger/{account}", s.handleBalances)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start starts the API server and stops it when ctx is done
func (s *Server) Start(ctx context.Context, port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("starting api server", "port", port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	return s.server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
