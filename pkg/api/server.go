// Package api exposes the book's snapshots over REST and WebSocket, and
// forwards order submissions to the venue collaborator.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/fixlabs/recon/pkg/recon"
	"github.com/fixlabs/recon/pkg/sim"
	"github.com/fixlabs/recon/pkg/util"
)

// Venue is the order-entry side the server forwards to.
type Venue interface {
	Submit(sim.OrderRequest)
	Cancel(sim.CancelRequest)
}

type Server struct {
	book   *recon.Book
	venue  Venue
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(book *recon.Book, venue Venue, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = util.NopSugar()
	}
	s := &Server{
		book:   book,
		venue:  venue,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/snapshot", s.handleGetSnapshot).Methods("GET")
	api.HandleFunc("/orders", s.handleGetOrders).Methods("GET")
	api.HandleFunc("/positions", s.handleGetPositions).Methods("GET")
	api.HandleFunc("/positions/{symbol}", s.handleGetPosition).Methods("GET")
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/stats/{symbol}", s.handleGetStat).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routable handler; exposed for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start runs the hub and serves HTTP until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.book.Snapshot())
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.book.Snapshot().OpenOrders)
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.book.Snapshot().Positions)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	pos, ok := s.book.Position(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, "position not found", symbol)
		return
	}
	respondJSON(w, recon.PositionView{
		Symbol:        pos.Symbol,
		NetQty:        pos.NetQty,
		AvgCost:       pos.AvgCost,
		RealizedPnL:   pos.RealizedPnL,
		UnrealizedPnL: pos.UnrealizedPnL,
		LastPx:        pos.LastPx,
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.book.Snapshot().Stats)
}

func (s *Server) handleGetStat(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	stat, ok := s.book.Stat(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, "stat not found", symbol)
		return
	}
	respondJSON(w, recon.StatView{
		Symbol:         stat.Symbol,
		NotionalTraded: stat.NotionalTraded,
		QtyTraded:      stat.QtyTraded,
		VWAP:           stat.VWAP,
	})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.ClOrdID == "" || req.Symbol == "" || req.OrderQty <= 0 {
		respondError(w, http.StatusBadRequest, "clOrdId, symbol and positive orderQty required", "")
		return
	}

	side := parseSide(req.Side)
	if side == recon.SideUnknown {
		respondError(w, http.StatusBadRequest, "invalid side", req.Side)
		return
	}

	ordType := recon.OrdTypeLimit
	if req.OrdType == "market" {
		ordType = recon.OrdTypeMarket
	}

	s.venue.Submit(sim.OrderRequest{
		ClOrdID:  req.ClOrdID,
		Symbol:   req.Symbol,
		Side:     side,
		OrdType:  ordType,
		OrderQty: req.OrderQty,
		Price:    req.Price,
	})

	s.log.Infow("order_submitted", "cl_ord_id", req.ClOrdID, "symbol", req.Symbol)
	respondJSON(w, SubmitOrderResponse{Status: "submitted", ClOrdID: req.ClOrdID})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.OrigClOrdID == "" {
		respondError(w, http.StatusBadRequest, "missing origClOrdId", "")
		return
	}

	s.venue.Cancel(sim.CancelRequest{
		ClOrdID:     req.ClOrdID,
		OrigClOrdID: req.OrigClOrdID,
		Symbol:      req.Symbol,
		Side:        parseSide(req.Side),
	})

	s.log.Infow("cancel_submitted", "orig_cl_ord_id", req.OrigClOrdID)
	respondJSON(w, map[string]string{"status": "submitted", "origClOrdId": req.OrigClOrdID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// BroadcastSnapshot pushes a snapshot to the snapshot channel. Wire it to
// the book's OnApply hook.
func (s *Server) BroadcastSnapshot(snap *recon.Snapshot) {
	s.hub.BroadcastToChannel("snapshot", SnapshotUpdate{Type: "snapshot", Snapshot: snap})
}

// BroadcastFill pushes an accepted fill to its symbol channel.
func (s *Server) BroadcastFill(f recon.Fill) {
	s.hub.BroadcastToChannel("fills:"+f.Symbol, FillUpdate{
		Type:      "fill",
		Symbol:    f.Symbol,
		ClOrdID:   f.ClOrdID,
		Side:      f.Side.String(),
		Price:     f.Px,
		Qty:       f.Qty,
		Timestamp: time.Now().UnixMilli(),
	})
}

func parseSide(s string) recon.Side {
	switch s {
	case "buy":
		return recon.SideBuy
	case "sell":
		return recon.SideSell
	case "sell_short":
		return recon.SideSellShort
	default:
		return recon.SideUnknown
	}
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message})
}
