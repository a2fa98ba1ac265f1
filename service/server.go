package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"synthvault/crypto"
	"synthvault/engine"
	"synthvault/events"
	"synthvault/ledger"
	"synthvault/observability"
	"synthvault/oracle"
	"synthvault/token"
)

const maxBodyBytes = 1 << 16 // 64 KiB

// Server exposes the engine's operation and query surface over HTTP.
type Server struct {
	engine   *engine.Engine
	recorder *events.Recorder
	faucet   map[ledger.Asset]*token.Basic
	metrics  *observability.VaultMetrics
	log      *slog.Logger
	router   http.Handler
}

// New wires the HTTP layer. The recorder may be nil when no event feed is
// wanted. A non-nil faucet map enables the dev-only endpoint that mints
// collateral tokens to an actor; production deployments leave it nil.
func New(eng *engine.Engine, recorder *events.Recorder, faucet map[ledger.Asset]*token.Basic, log *slog.Logger) (*Server, error) {
	if eng == nil {
		return nil, errors.New("service: engine required")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		engine:   eng,
		recorder: recorder,
		faucet:   faucet,
		metrics:  observability.Metrics(),
		log:      log,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Route("/v1", func(api chi.Router) {
		api.Post("/deposit", s.depositCollateral)
		api.Post("/mint", s.mintStable)
		api.Post("/deposit-and-mint", s.depositAndMint)
		api.Post("/redeem", s.redeemCollateral)
		api.Post("/burn", s.burnStable)
		api.Post("/redeem-for-stable", s.redeemForStable)
		api.Post("/liquidate", s.liquidate)

		api.Get("/health-factor/{actor}", s.healthFactor)
		api.Get("/account/{actor}", s.accountSnapshot)
		api.Get("/collateral/{actor}/{asset}", s.collateralBalance)
		api.Get("/assets", s.listAssets)
		api.Get("/constants", s.constants)
		api.Get("/value/{asset}", s.usdValue)
		api.Get("/amount/{asset}", s.amountForUsd)
		api.Get("/events", s.eventFeed)

		if s.faucet != nil {
			api.Post("/faucet", s.faucetMint)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type depositRequest struct {
	Actor  string `json:"actor"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

func (s *Server) depositCollateral(w http.ResponseWriter, r *http.Request) {
	defer s.observe("deposit", time.Now())
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, amount, ok := s.actorAmount(w, req.Actor, req.Amount)
	if !ok {
		return
	}
	err := s.engine.DepositCollateral(actor, ledger.Asset(req.Asset), amount)
	s.finish(w, "deposit", err)
}

type mintRequest struct {
	Actor  string `json:"actor"`
	Amount string `json:"amount"`
}

func (s *Server) mintStable(w http.ResponseWriter, r *http.Request) {
	defer s.observe("mint", time.Now())
	var req mintRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, amount, ok := s.actorAmount(w, req.Actor, req.Amount)
	if !ok {
		return
	}
	err := s.engine.Mint(actor, amount)
	s.finish(w, "mint", err)
}

type depositAndMintRequest struct {
	Actor            string `json:"actor"`
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateralAmount"`
	MintAmount       string `json:"mintAmount"`
}

func (s *Server) depositAndMint(w http.ResponseWriter, r *http.Request) {
	defer s.observe("deposit_and_mint", time.Now())
	var req depositAndMintRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, collateralAmount, ok := s.actorAmount(w, req.Actor, req.CollateralAmount)
	if !ok {
		return
	}
	mintAmount, ok := s.amount(w, req.MintAmount)
	if !ok {
		return
	}
	err := s.engine.DepositCollateralAndMint(actor, ledger.Asset(req.Asset), collateralAmount, mintAmount)
	s.finish(w, "deposit_and_mint", err)
}

func (s *Server) redeemCollateral(w http.ResponseWriter, r *http.Request) {
	defer s.observe("redeem", time.Now())
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, amount, ok := s.actorAmount(w, req.Actor, req.Amount)
	if !ok {
		return
	}
	err := s.engine.RedeemCollateral(actor, ledger.Asset(req.Asset), amount)
	s.finish(w, "redeem", err)
}

func (s *Server) burnStable(w http.ResponseWriter, r *http.Request) {
	defer s.observe("burn", time.Now())
	var req mintRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, amount, ok := s.actorAmount(w, req.Actor, req.Amount)
	if !ok {
		return
	}
	err := s.engine.Burn(actor, amount)
	s.finish(w, "burn", err)
}

type redeemForStableRequest struct {
	Actor            string `json:"actor"`
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateralAmount"`
	BurnAmount       string `json:"burnAmount"`
}

func (s *Server) redeemForStable(w http.ResponseWriter, r *http.Request) {
	defer s.observe("redeem_for_stable", time.Now())
	var req redeemForStableRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, collateralAmount, ok := s.actorAmount(w, req.Actor, req.CollateralAmount)
	if !ok {
		return
	}
	burnAmount, ok := s.amount(w, req.BurnAmount)
	if !ok {
		return
	}
	err := s.engine.RedeemCollateralForStable(actor, ledger.Asset(req.Asset), collateralAmount, burnAmount)
	s.finish(w, "redeem_for_stable", err)
}

type liquidateRequest struct {
	Liquidator  string `json:"liquidator"`
	Asset       string `json:"asset"`
	Target      string `json:"target"`
	DebtToCover string `json:"debtToCover"`
}

func (s *Server) liquidate(w http.ResponseWriter, r *http.Request) {
	defer s.observe("liquidate", time.Now())
	var req liquidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	liquidator, debtToCover, ok := s.actorAmount(w, req.Liquidator, req.DebtToCover)
	if !ok {
		return
	}
	target, err := crypto.DecodeAddress(req.Target)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "SVT-400", "invalid target address", nil)
		return
	}
	err = s.engine.Liquidate(liquidator, ledger.Asset(req.Asset), target, debtToCover)
	if err == nil {
		s.metrics.RecordLiquidation()
	}
	s.finish(w, "liquidate", err)
}

func (s *Server) healthFactor(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.pathActor(w, r)
	if !ok {
		return
	}
	hf, err := s.engine.HealthFactor(actor)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"healthFactor": hf.String()})
}

func (s *Server) accountSnapshot(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.pathActor(w, r)
	if !ok {
		return
	}
	debt, collateralValue, err := s.engine.AccountSnapshot(actor)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"debt":               debt.String(),
		"collateralValueUsd": collateralValue.String(),
	})
}

func (s *Server) collateralBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.pathActor(w, r)
	if !ok {
		return
	}
	asset := ledger.Asset(chi.URLParam(r, "asset"))
	balance, err := s.engine.CollateralBalance(actor, asset)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *Server) listAssets(w http.ResponseWriter, _ *http.Request) {
	assets := s.engine.RegisteredAssets()
	out := make([]string, 0, len(assets))
	for _, asset := range assets {
		out = append(out, string(asset))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (s *Server) constants(w http.ResponseWriter, _ *http.Request) {
	c := engine.ProtocolConstants()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"precision":               c.Precision.String(),
		"additionalFeedPrecision": c.AdditionalFeedPrecision.String(),
		"liquidationThreshold":    c.LiquidationThreshold.String(),
		"liquidationPrecision":    c.LiquidationPrecision.String(),
		"liquidationBonus":        c.LiquidationBonus.String(),
		"minHealthFactor":         c.MinHealthFactor.String(),
	})
}

func (s *Server) usdValue(w http.ResponseWriter, r *http.Request) {
	asset := ledger.Asset(chi.URLParam(r, "asset"))
	amount, ok := s.amount(w, r.URL.Query().Get("amount"))
	if !ok {
		return
	}
	value, err := s.engine.UsdValue(asset, amount)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"usdValue": value.String()})
}

func (s *Server) amountForUsd(w http.ResponseWriter, r *http.Request) {
	asset := ledger.Asset(chi.URLParam(r, "asset"))
	usd, ok := s.amount(w, r.URL.Query().Get("usd"))
	if !ok {
		return
	}
	amount, err := s.engine.AmountForUsd(asset, usd)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}

func (s *Server) eventFeed(w http.ResponseWriter, _ *http.Request) {
	if s.recorder == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"events": []any{}})
		return
	}
	recent := s.recorder.Recent()
	out := make([]map[string]any, 0, len(recent))
	for _, evt := range recent {
		out = append(out, wireEvent(evt))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) faucetMint(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, amount, ok := s.actorAmount(w, req.Actor, req.Amount)
	if !ok {
		return
	}
	asset, ok := s.faucet[ledger.Asset(req.Asset)]
	if !ok {
		s.writeError(w, http.StatusBadRequest, "SVT-400", "unknown faucet asset", nil)
		return
	}
	if err := asset.Mint(actor, amount); err != nil {
		s.writeError(w, http.StatusBadRequest, "SVT-400", err.Error(), nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, http.StatusBadRequest, "SVT-400", "invalid JSON payload", nil)
		return false
	}
	return true
}

func (s *Server) actorAmount(w http.ResponseWriter, rawActor, rawAmount string) (crypto.Address, *big.Int, bool) {
	actor, err := crypto.DecodeAddress(rawActor)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "SVT-400", "invalid actor address", nil)
		return crypto.Address{}, nil, false
	}
	amount, ok := s.amount(w, rawAmount)
	if !ok {
		return crypto.Address{}, nil, false
	}
	return actor, amount, true
}

func (s *Server) amount(w http.ResponseWriter, raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "SVT-400", "invalid amount", nil)
		return nil, false
	}
	return amount, true
}

func (s *Server) pathActor(w http.ResponseWriter, r *http.Request) (crypto.Address, bool) {
	actor, err := crypto.DecodeAddress(chi.URLParam(r, "actor"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "SVT-400", "invalid actor address", nil)
		return crypto.Address{}, false
	}
	return actor, true
}

func (s *Server) finish(w http.ResponseWriter, op string, err error) {
	if err != nil {
		s.metrics.RecordOperation(op, "error")
		s.log.Warn("operation rejected", "op", op, "error", err.Error())
		s.writeEngineError(w, err)
		return
	}
	s.metrics.RecordOperation(op, "ok")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var underflow *ledger.DebtUnderflowError
	switch {
	case errors.As(err, &underflow):
		s.writeError(w, http.StatusUnprocessableEntity, "SVT-422", err.Error(), map[string]any{
			"requested": underflow.Requested.String(),
			"available": underflow.Available.String(),
		})
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnregisteredAsset),
		errors.Is(err, oracle.ErrUnknownAsset):
		s.writeError(w, http.StatusBadRequest, "SVT-400", err.Error(), nil)
	case errors.Is(err, ledger.ErrInsufficientCollateral):
		s.writeError(w, http.StatusUnprocessableEntity, "SVT-422", err.Error(), nil)
	case errors.Is(err, engine.ErrHealthFactorBelowThreshold),
		errors.Is(err, engine.ErrHealthFactorOk),
		errors.Is(err, engine.ErrHealthFactorNotImproved),
		errors.Is(err, engine.ErrLiquidationShortfall):
		s.writeError(w, http.StatusConflict, "SVT-409", err.Error(), nil)
	case errors.Is(err, engine.ErrOperationPaused):
		s.writeError(w, http.StatusServiceUnavailable, "SVT-503", err.Error(), nil)
	case errors.Is(err, engine.ErrMintFailed),
		errors.Is(err, engine.ErrTransferFailed),
		errors.Is(err, oracle.ErrPriceUnavailable),
		errors.Is(err, oracle.ErrNonPositivePrice),
		errors.Is(err, oracle.ErrStaleReading):
		s.writeError(w, http.StatusBadGateway, "SVT-502", err.Error(), nil)
	default:
		s.writeError(w, http.StatusInternalServerError, "SVT-500", err.Error(), nil)
	}
}

func (s *Server) observe(op string, start time.Time) {
	s.metrics.ObserveLatency(op, time.Since(start).Seconds())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	body, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	}
	s.writeJSON(w, status, payload)
}

func wireEvent(evt events.Event) map[string]any {
	out := map[string]any{"type": evt.EventType()}
	attrs := map[string]string{}
	switch e := evt.(type) {
	case events.CollateralDeposited:
		attrs["actor"] = e.Actor.String()
		attrs["asset"] = string(e.Asset)
		attrs["amount"] = e.Amount.String()
	case events.CollateralRedeemed:
		attrs["from"] = e.From.String()
		attrs["to"] = e.To.String()
		attrs["asset"] = string(e.Asset)
		attrs["amount"] = e.Amount.String()
	case events.StableMinted:
		attrs["actor"] = e.Actor.String()
		attrs["amount"] = e.Amount.String()
	case events.StableBurned:
		attrs["actor"] = e.Actor.String()
		attrs["payer"] = e.Payer.String()
		attrs["amount"] = e.Amount.String()
	case events.PositionLiquidated:
		attrs["liquidator"] = e.Liquidator.String()
		attrs["target"] = e.Target.String()
		attrs["asset"] = string(e.Asset)
		attrs["debtCovered"] = e.DebtCovered.String()
		attrs["seized"] = e.Seized.String()
	}
	out["attributes"] = attrs
	return out
}
