package devserver

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/client-platform/internal/model"
)

// state is the in-memory backing store for the dev server. It exists so
// the client stack can be exercised without a production backend; data
// resets on restart.
type state struct {
	mu sync.RWMutex

	accounts     []model.Account
	transactions []model.Transaction
	projects     []model.Project
	proposals    []model.Proposal
	tasks        map[string]*model.Task
	messages     map[string][]model.Message // accountID -> chronological
	typing       map[string]time.Time       // accountID -> last beacon
	twoFactor    map[string]string          // email -> pending code
}

func newState() *state {
	s := &state{
		tasks:     make(map[string]*model.Task),
		messages:  make(map[string][]model.Message),
		typing:    make(map[string]time.Time),
		twoFactor: make(map[string]string),
	}
	s.seed()
	return s
}

// seed loads demo data so freshly started servers have something to show.
func (s *state) seed() {
	now := time.Now()

	acme := model.Account{
		ID:          uuid.New().String(),
		CompanyName: "Acme Outdoor Co.",
		ContactName: "Dana Reyes",
		Email:       "dana@acmeoutdoor.example",
		Status:      model.AccountActive,
		CreatedAt:   now.AddDate(0, -4, 0),
	}
	brio := model.Account{
		ID:          uuid.New().String(),
		CompanyName: "Brio Coffee Roasters",
		ContactName: "Sam Ito",
		Email:       "sam@briocoffee.example",
		Status:      model.AccountActive,
		CreatedAt:   now.AddDate(0, -2, 0),
	}
	s.accounts = []model.Account{acme, brio}

	s.transactions = []model.Transaction{
		{
			ID:          uuid.New().String(),
			AccountID:   acme.ID,
			Description: "Brand refresh — phase 1",
			AmountCents: 450000,
			Currency:    "USD",
			Status:      model.TransactionPaid,
			IssuedAt:    now.AddDate(0, -1, -10),
		},
		{
			ID:          uuid.New().String(),
			AccountID:   brio.ID,
			Description: "Packaging system",
			AmountCents: 280000,
			Currency:    "USD",
			Status:      model.TransactionPending,
			IssuedAt:    now.AddDate(0, 0, -6),
		},
	}

	due := now.AddDate(0, 1, 0)
	s.projects = []model.Project{
		{
			ID:        uuid.New().String(),
			AccountID: acme.ID,
			Name:      "Brand refresh",
			Status:    model.ProjectActive,
			StartedAt: now.AddDate(0, -1, 0),
			DueAt:     &due,
			Milestones: []model.Milestone{
				{ID: uuid.New().String(), Title: "Discovery", Completed: true},
				{ID: uuid.New().String(), Title: "Logo concepts", Completed: true},
				{ID: uuid.New().String(), Title: "Guidelines", DueAt: &due},
			},
		},
	}

	s.proposals = []model.Proposal{
		{
			ID:          uuid.New().String(),
			AccountID:   brio.ID,
			Title:       "Seasonal campaign",
			AmountCents: 120000,
			Currency:    "USD",
			Status:      model.ProposalSent,
			CreatedAt:   now.AddDate(0, 0, -3),
		},
	}

	s.messages[acme.ID] = []model.Message{
		{
			ID:         uuid.New().String(),
			AccountID:  acme.ID,
			SenderID:   acme.ID,
			SenderRole: model.RoleClient,
			SenderName: acme.ContactName,
			Content:    "Loved the second logo direction. Can we see it in the navy palette?",
			CreatedAt:  now.Add(-2 * time.Hour),
		},
	}
}

func (s *state) account(id string) *model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return &s.accounts[i]
		}
	}
	return nil
}

// messagesAfter returns messages for an account created strictly after
// the cursor; a zero cursor means full history.
func (s *state) messagesAfter(accountID string, after time.Time) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.messages[accountID]
	if after.IsZero() {
		out := make([]model.Message, len(all))
		copy(out, all)
		return out
	}
	var out []model.Message
	for _, m := range all {
		if m.CreatedAt.After(after) {
			out = append(out, m)
		}
	}
	return out
}

func (s *state) appendMessage(m model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.messages[m.AccountID], m)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	s.messages[m.AccountID] = msgs
}

// typingWindow is how long a beacon keeps the indicator on.
const typingWindow = 4 * time.Second

func (s *state) setTyping(accountID string) {
	s.mu.Lock()
	s.typing[accountID] = time.Now()
	s.mu.Unlock()
}

func (s *state) isTyping(accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last, ok := s.typing[accountID]
	return ok && time.Since(last) < typingWindow
}
