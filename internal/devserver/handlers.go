package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atelierhq/client-platform/internal/model"
)

// handleListMessages handles GET /messages?accountId=&after=.
// An omitted after means full history; otherwise only messages created
// strictly after the cursor are returned.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if s.state.account(accountID) == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	var after time.Time
	if v := r.URL.Query().Get("after"); v != "" {
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after timestamp")
			return
		}
		after = parsed
	}

	msgs := s.state.messagesAfter(accountID, after)
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		APIResponse: model.APIResponse{Success: true},
		Messages:    msgs,
	})
}

// handleSendMessage handles POST /messages.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.state.account(req.AccountID) == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "content cannot be empty")
		return
	}
	if len(content) > 100000 || !utf8.ValidString(content) {
		writeError(w, http.StatusBadRequest, "invalid content")
		return
	}

	msg := model.Message{
		ID:            uuid.Must(uuid.NewV7()).String(),
		AccountID:     req.AccountID,
		SenderID:      s.adminID,
		SenderRole:    model.RoleAdmin,
		SenderName:    "Studio",
		Content:       content,
		CorrelationID: req.CorrelationID,
		CreatedAt:     time.Now(),
	}
	s.state.appendMessage(msg)

	writeJSON(w, http.StatusCreated, &model.SendMessageResponse{
		APIResponse: model.APIResponse{Success: true},
		Message:     &msg,
	})
}

// handleGetTyping handles GET /messages/typing?accountId=.
func (s *Server) handleGetTyping(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	writeJSON(w, http.StatusOK, &model.TypingResponse{
		APIResponse: model.APIResponse{Success: true},
		Typing:      s.state.isTyping(accountID),
	})
}

// handlePostTyping handles POST /messages/typing?accountId=.
func (s *Server) handlePostTyping(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if s.state.account(accountID) == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	s.state.setTyping(accountID)
	writeJSON(w, http.StatusOK, &model.APIResponse{Success: true})
}

// handleDashboard handles GET /dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	dash := &model.Dashboard{}
	for _, p := range s.state.projects {
		if p.Status == model.ProjectActive {
			dash.ActiveProjects++
		}
		for _, m := range p.Milestones {
			if !m.Completed {
				dash.UpcomingMilestones = append(dash.UpcomingMilestones, m)
			}
		}
	}
	for _, p := range s.state.proposals {
		if p.Status == model.ProposalSent {
			dash.PendingProposals++
		}
	}
	for _, t := range s.state.transactions {
		if t.Status != model.TransactionPaid {
			dash.OutstandingCents += t.AmountCents
		}
	}
	dash.RecentTransactions = s.state.transactions
	for _, msgs := range s.state.messages {
		for _, m := range msgs {
			if m.SenderRole == model.RoleClient && m.ReadAt == nil {
				dash.UnreadMessages++
			}
		}
	}

	writeJSON(w, http.StatusOK, &model.DashboardResponse{
		APIResponse: model.APIResponse{Success: true},
		Dashboard:   dash,
	})
}

// handleListAccounts handles GET /accounts.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	s.state.mu.RLock()
	accounts := make([]model.Account, len(s.state.accounts))
	copy(accounts, s.state.accounts)
	s.state.mu.RUnlock()

	writeJSON(w, http.StatusOK, &model.ListAccountsResponse{
		APIResponse: model.APIResponse{Success: true},
		Accounts:    accounts,
		Total:       len(accounts),
	})
}

// handleListTransactions handles GET /transactions.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")

	s.state.mu.RLock()
	var out []model.Transaction
	for _, t := range s.state.transactions {
		if accountID == "" || t.AccountID == accountID {
			out = append(out, t)
		}
	}
	s.state.mu.RUnlock()
	if out == nil {
		out = []model.Transaction{}
	}

	writeJSON(w, http.StatusOK, &model.ListTransactionsResponse{
		APIResponse:  model.APIResponse{Success: true},
		Transactions: out,
		Total:        len(out),
	})
}

// handleListProjects handles GET /projects.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")

	s.state.mu.RLock()
	var out []model.Project
	for _, p := range s.state.projects {
		if accountID == "" || p.AccountID == accountID {
			out = append(out, p)
		}
	}
	s.state.mu.RUnlock()
	if out == nil {
		out = []model.Project{}
	}

	writeJSON(w, http.StatusOK, &model.ListProjectsResponse{
		APIResponse: model.APIResponse{Success: true},
		Projects:    out,
		Total:       len(out),
	})
}

// handleListProposals handles GET /proposals.
func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")

	s.state.mu.RLock()
	var out []model.Proposal
	for _, p := range s.state.proposals {
		if accountID == "" || p.AccountID == accountID {
			out = append(out, p)
		}
	}
	s.state.mu.RUnlock()
	if out == nil {
		out = []model.Proposal{}
	}

	writeJSON(w, http.StatusOK, &model.ListProposalsResponse{
		APIResponse: model.APIResponse{Success: true},
		Proposals:   out,
		Total:       len(out),
	})
}

// handleCreateProposal handles POST /proposals.
func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.state.account(req.AccountID) == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	proposal := model.Proposal{
		ID:          uuid.Must(uuid.NewV7()).String(),
		AccountID:   req.AccountID,
		Title:       req.Title,
		Summary:     req.Summary,
		AmountCents: req.AmountCents,
		Currency:    currency,
		Status:      model.ProposalDraft,
		CreatedAt:   time.Now(),
	}
	s.state.mu.Lock()
	s.state.proposals = append(s.state.proposals, proposal)
	s.state.mu.Unlock()

	writeJSON(w, http.StatusCreated, &model.ProposalResponse{
		APIResponse: model.APIResponse{Success: true},
		Proposal:    &proposal,
	})
}

// handleListTasks handles GET /tasks.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.state.mu.RLock()
	out := make([]model.Task, 0, len(s.state.tasks))
	for _, t := range s.state.tasks {
		out = append(out, *t)
	}
	s.state.mu.RUnlock()

	writeJSON(w, http.StatusOK, &model.ListTasksResponse{
		APIResponse: model.APIResponse{Success: true},
		Tasks:       out,
	})
}

// handleCreateTask handles POST /tasks.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}

	task := &model.Task{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Title:     req.Title,
		Notes:     req.Notes,
		DueAt:     req.DueAt,
		Reminder:  req.Reminder,
		CreatedAt: time.Now(),
	}
	s.state.mu.Lock()
	s.state.tasks[task.ID] = task
	s.state.mu.Unlock()

	writeJSON(w, http.StatusCreated, &model.TaskResponse{
		APIResponse: model.APIResponse{Success: true},
		Task:        task,
	})
}

// handleUpdateTask handles PUT /tasks/{id}.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req model.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.state.mu.Lock()
	task, ok := s.state.tasks[id]
	if ok {
		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Notes != nil {
			task.Notes = *req.Notes
		}
		if req.DueAt != nil {
			task.DueAt = *req.DueAt
		}
		if req.Completed != nil {
			task.Completed = *req.Completed
		}
		if req.Reminder != nil {
			task.Reminder = *req.Reminder
		}
		now := time.Now()
		task.UpdatedAt = &now
	}
	s.state.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, &model.TaskResponse{
		APIResponse: model.APIResponse{Success: true},
		Task:        task,
	})
}

// handleDeleteTask handles DELETE /tasks/{id}.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.state.mu.Lock()
	_, ok := s.state.tasks[id]
	delete(s.state.tasks, id)
	s.state.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, &model.APIResponse{Success: true})
}

// handleListTemplates handles GET /templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.ListTemplatesResponse{
		APIResponse: model.APIResponse{Success: true},
		Templates:   brandTemplates,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady handles GET /ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
