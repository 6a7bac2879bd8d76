// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"diet-coach/internal/analytics"
	"diet-coach/internal/reconcile"
	"diet-coach/internal/storage"
)

type Config struct {
	Host   string
	Port   int
	DBPath string
}

// DietCoachServer wires the record store, analytics aggregator,
// reconciliation engine and AI coach client behind an HTTP tool surface.
// Handlers stay thin; every invariant lives in the packages underneath.
type DietCoachServer struct {
	httpServer *http.Server
	store      *storage.Store
	coach      *CoachClient
	engine     *reconcile.Engine
	aggregator *analytics.Aggregator
	config     *Config
	logger     *zap.Logger
}

type toolHandler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

func NewDietCoachServer(cfg *Config, logger *zap.Logger) (*DietCoachServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.EnsureSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to provision schema: %w", err)
	}

	srv := &DietCoachServer{
		store:      store,
		coach:      NewCoachClient(),
		engine:     reconcile.New(store, logger),
		aggregator: analytics.New(store),
		config:     cfg,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleHTTP)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return srv, nil
}

func (s *DietCoachServer) tools() map[string]toolHandler {
	return map[string]toolHandler{
		"register":        s.handleRegister,
		"login":           s.handleLogin,
		"upsert_profile":  s.handleUpsertProfile,
		"get_profile":     s.handleGetProfile,
		"add_exercise":    s.handleAddExercise,
		"list_exercises":  s.handleListExercises,
		"delete_exercise": s.handleDeleteExercise,
		"add_meal":        s.handleAddMeal,
		"list_meals":      s.handleListMeals,
		"delete_meal":     s.handleDeleteMeal,
		"today_totals":    s.handleTodayTotals,
		"weekly_report":   s.handleWeeklyReport,
		"chart_series":    s.handleChartSeries,
		"coach_chat":      s.handleCoachChat,
	}
}

func (s *DietCoachServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools()[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	reqID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", reqID), zap.String("tool", request.Name))
	ctx := r.Context()

	result, err := handler(ctx, &request)
	if err != nil {
		logger.Warn("tool call failed", zap.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// statusFor maps the storage error taxonomy onto HTTP statuses: bad input
// and duplicate registration are the client's problem, everything else is
// an engine failure.
func statusFor(err error) int {
	switch {
	case storage.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, errInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, errLoginFailed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *DietCoachServer) Start(ctx context.Context) error {
	s.logger.Info("starting diet coach server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *DietCoachServer) Stop() error {
	if s.store != nil {
		s.store.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
