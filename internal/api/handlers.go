package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/xeipuuv/gojsonschema"

	"github.com/suspectuso/ton-mintgate/internal/auth"
	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/minter"
)

const defaultReceiptLimit = 50

// identity resolves the bearer token of r. Missing tokens are an error.
func (s *Server) identity(r *http.Request) (controls.Address, error) {
	return s.verifier.Identity(auth.FromHeader(r.Header.Get("Authorization")))
}

// decode validates the body of r against schema and unmarshals it into v
func decode(r *http.Request, schema *gojsonschema.Schema, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func pathAddress(r *http.Request, name string) (controls.Address, error) {
	a, err := controls.ParseAddress(r.PathValue(name))
	if err != nil || a.IsZero() {
		return controls.Address{}, fmt.Errorf("%w: %s", errBadPath, name)
	}
	return a, nil
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in controls.InitInput
	if err := decode(r, collectionSchema, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	d, c, err := s.svc.CreateCollection(r.Context(), caller, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, collectionResponse{Deployment: d, Controls: c})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, c, err := s.svc.Collection(r.Context(), collection)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionResponse{Deployment: d, Controls: c})
}

func (s *Server) handleAppendPhase(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var phase controls.Phase
	if err := decode(r, phaseSchema, &phase); err != nil {
		s.writeError(w, r, err)
		return
	}

	index, err := s.svc.AppendPhase(r.Context(), caller, collection, phase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, phaseResponse{Index: index})
}

func (s *Server) handleSetPhaseActive(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := strconv.ParseUint(r.PathValue("index"), 10, 32)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: index", errBadPath))
		return
	}

	var req phaseSwitchRequest
	if err := decode(r, phaseSwitchSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.SetPhaseActive(r.Context(), caller, collection, uint32(index), req.Active); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateFee(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var fee controls.FeeConfig
	if err := decode(r, feeSchema, &fee); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.UpdateFee(r.Context(), caller, collection, fee); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// the bearer identity is optional here; when present it is the co-signer
	var signer controls.Address
	if token := auth.FromHeader(r.Header.Get("Authorization")); token != "" {
		signer, err = s.verifier.Identity(token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	var req mintRequest
	if err := decode(r, mintSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	receipt, err := s.svc.Mint(r.Context(), minter.Request{
		Collection: collection,
		PhaseIndex: req.PhaseIndex,
		Minter:     req.Minter,
		Payer:      req.Payer,
		Signer:     signer,
		Claim: controls.AllowlistClaim{
			Proof:     req.MerkleProof,
			Price:     req.AllowlistPrice,
			MaxClaims: req.AllowlistMaxClaims,
		},
		Price:      req.Price,
		Recipients: req.Recipients,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleWalletStats(w http.ResponseWriter, r *http.Request) {
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wallet, err := pathAddress(r, "wallet")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stats, err := s.svc.WalletStats(r.Context(), collection, wallet)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	collection, err := pathAddress(r, "collection")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit := defaultReceiptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, fmt.Errorf("%w: limit", ErrInvalidPayload))
			return
		}
		limit = n
	}

	receipts, err := s.svc.Receipts(collection, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if receipts == nil {
		receipts = []controls.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	caller, err := s.identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req creditRequest
	if err := decode(r, creditSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.svc.Credit(r.Context(), caller, req.Account, req.Token, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBalances(w, r, req.Account)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	account, err := pathAddress(r, "account")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBalances(w, r, account)
}

func (s *Server) writeBalances(w http.ResponseWriter, r *http.Request, account controls.Address) {
	balances, err := s.svc.Balances(r.Context(), account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := balanceResponse{Account: account, Balances: []balanceEntry{}}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, balanceEntry{Token: b.Token, Amount: b.Amount})
	}
	writeJSON(w, http.StatusOK, resp)
}
