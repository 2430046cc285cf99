package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/axionhq/axion-router/internal/service"
)

// emptyTwiML is the acknowledgment Twilio expects; an empty response
// document prevents any automatic reply from the provider side
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// Server exposes the webhook and agent HTTP surface
type Server struct {
	router *service.RouterService

	server *http.Server
	port   int
}

// NewServer creates a new API server
func NewServer(router *service.RouterService, port int) *Server {
	return &Server{
		router: router,
		port:   port,
	}
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Provider webhook
	mux.HandleFunc("/webhook/", s.handleWebhook)

	// Agent operations
	mux.HandleFunc("/agent/send-message", s.handleAgentSendMessage)
	mux.HandleFunc("/agent/toggle-ai", s.handleToggleAI)

	// Presence beacon
	mux.HandleFunc("/respondent/status", s.handleRespondentStatus)

	// Debug endpoint for presence inspection
	mux.HandleFunc("/debug/respondents/", s.handleDebugRespondents)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	fmt.Printf("[API] Starting HTTP server on port %d\n", s.port)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// ============ Webhook Handler ============

// webhookPayload carries the inbound message fields across both the JSON
// shape and Twilio's form encoding
type webhookPayload struct {
	Message   string
	From      string
	MessageID string
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimPrefix(r.URL.Path, "/webhook/")
	tenantID = strings.TrimSuffix(tenantID, "/")
	if tenantID == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "Tenant ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]interface{}{
			"status":   "webhook endpoint active",
			"tenantId": tenantID,
			"message":  "This endpoint accepts POST requests from Twilio WhatsApp webhooks",
		})

	case http.MethodPost:
		s.handleWebhookPost(w, r, tenantID)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWebhookPost(w http.ResponseWriter, r *http.Request, tenantID string) {
	payload, err := parseWebhookPayload(r)
	if err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Message == "" || payload.From == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "Message and sender are required")
		return
	}

	_, err = s.router.HandleInbound(r.Context(), &service.InboundRequest{
		CompanyID: tenantID,
		From:      payload.From,
		Body:      payload.Message,
		MessageID: payload.MessageID,
	})
	if err != nil {
		if errors.Is(err, service.ErrCompanyNotFound) {
			s.writeErrorMessage(w, http.StatusNotFound, "Company not found")
			return
		}
		fmt.Printf("[API] Webhook failed for tenant %s: %v\n", tenantID, err)
		s.writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Empty TwiML either way: replies go out through the REST API, never
	// through the webhook response
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(emptyTwiML))
}

// parseWebhookPayload accepts both the JSON test shape and Twilio's
// form-encoded delivery, with their respective field names
func parseWebhookPayload(r *http.Request) (*webhookPayload, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if contentType == "application/json" {
		var body struct {
			Message    string `json:"message"`
			Body       string `json:"Body"`
			From       string `json:"from"`
			FromUpper  string `json:"From"`
			ID         string `json:"id"`
			MessageSid string `json:"MessageSid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid JSON body")
		}
		return &webhookPayload{
			Message:   firstNonEmpty(body.Message, body.Body),
			From:      firstNonEmpty(body.From, body.FromUpper),
			MessageID: firstNonEmpty(body.ID, body.MessageSid),
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body")
	}
	return &webhookPayload{
		Message:   firstNonEmpty(r.PostForm.Get("message"), r.PostForm.Get("Body")),
		From:      firstNonEmpty(r.PostForm.Get("from"), r.PostForm.Get("From")),
		MessageID: firstNonEmpty(r.PostForm.Get("id"), r.PostForm.Get("MessageSid"), r.PostForm.Get("SmsMessageSid")),
	}, nil
}

// ============ Agent Handlers ============

func (s *Server) handleAgentSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TicketID    string `json:"ticketId"`
		ConvID      string `json:"convId"`
		Body        string `json:"body"`
		TenantID    string `json:"tenantId"`
		SenderName  string `json:"senderName"`
		UserName    string `json:"userName"`
		SenderEmail string `json:"senderEmail"`
		UserEmail   string `json:"userEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ticketID := firstNonEmpty(req.TicketID, req.ConvID)
	if ticketID == "" || req.Body == "" || req.TenantID == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "ticketId, body, and tenantId are required")
		return
	}

	err := s.router.HandleAgentMessage(r.Context(), &service.AgentMessageRequest{
		CompanyID:   req.TenantID,
		TicketID:    ticketID,
		Body:        req.Body,
		SenderName:  firstNonEmpty(req.SenderName, req.UserName),
		SenderEmail: firstNonEmpty(req.SenderEmail, req.UserEmail),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true})
}

func (s *Server) handleToggleAI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TicketID string `json:"ticketId"`
		ConvID   string `json:"convId"`
		Enable   *bool  `json:"enable"`
		TenantID string `json:"tenantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ticketID := firstNonEmpty(req.TicketID, req.ConvID)
	if ticketID == "" || req.Enable == nil || req.TenantID == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "ticketId, boolean enable, and tenantId are required")
		return
	}

	if err := s.router.ToggleAI(r.Context(), req.TenantID, ticketID, *req.Enable); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true, "aiEnabled": *req.Enable})
}

// ============ Presence Handlers ============

func (s *Server) handleRespondentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email     string `json:"email"`
		CompanyID string `json:"companyId"`
		Action    string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.CompanyID == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "email and companyId are required")
		return
	}
	if req.Action != "online" && req.Action != "offline" {
		s.writeErrorMessage(w, http.StatusBadRequest, "action must be online or offline")
		return
	}

	err := s.router.UpdateRespondentStatus(r.Context(), req.CompanyID, req.Email, req.Action == "online")
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true})
}

func (s *Server) handleDebugRespondents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := strings.TrimPrefix(r.URL.Path, "/debug/respondents/")
	tenantID = strings.TrimSuffix(tenantID, "/")
	if tenantID == "" {
		s.writeErrorMessage(w, http.StatusBadRequest, "Tenant ID is required")
		return
	}

	snapshots, err := s.router.ListRespondents(r.Context(), tenantID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"respondents": snapshots})
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		s.writeErrorMessage(w, http.StatusNotFound, "Company not found")
	case errors.Is(err, service.ErrTicketNotFound):
		s.writeErrorMessage(w, http.StatusNotFound, "Ticket not found")
	default:
		fmt.Printf("[API] Request failed: %v\n", err)
		s.writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
