// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/rs/zerolog/log"

	"nutrilog/internal/estimate"
	"nutrilog/internal/storage"
)

type Config struct {
	Host         string
	Port         int
	DBPath       string
	AdvisorURL   string
	AdvisorKey   string
	AdvisorModel string
}

type toolHandler func(*protocol.CallToolRequest) (*protocol.CallToolResult, error)

type NutrilogServer struct {
	server     *server.Server
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	estimator  *estimate.Estimator
	advisor    *Advisor
	tools      map[string]toolHandler
	config     *Config
}

func NewNutrilogServer(cfg *Config) (*NutrilogServer, error) {
	// Initialize database
	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	nutrilogServer := &NutrilogServer{
		storage:   stor,
		estimator: estimate.New(nil),
		advisor:   NewAdvisor(cfg.AdvisorURL, cfg.AdvisorKey, cfg.AdvisorModel),
		config:    cfg,
	}

	// Create HTTP server with MCP handler
	mux := http.NewServeMux()

	// Create MCP server (without transport, we'll handle HTTP manually)
	mcpServer, err := server.NewServer(
		nil, // We'll handle transport manually
		server.WithServerInfo(protocol.Implementation{
			Name:    "nutrilog",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	nutrilogServer.server = mcpServer

	// Register tools
	if err := nutrilogServer.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	// Set up HTTP handlers
	mux.HandleFunc("/", nutrilogServer.handleHTTP)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	nutrilogServer.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	if nutrilogServer.advisor == nil {
		log.Debug().Msg("no advisor gateway configured, estimates stay local")
	}

	return nutrilogServer, nil
}

func (s *NutrilogServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	// Simple HTTP-based MCP protocol handler
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

	w.Header().Set("Content-Type", "application/json")

	// Decode the MCP request
	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	// Route to the handler registered for the tool name
	handler, ok := s.tools[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler(&request)
	if err != nil {
		log.Warn().Err(err).Str("tool", request.Name).Msg("tool call failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Send response
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *NutrilogServer) Start(ctx context.Context) error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("starting nutrilog server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *NutrilogServer) Stop() error {
	log.Info().Msg("stopping nutrilog server")
	if s.storage != nil {
		s.storage.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *NutrilogServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
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
