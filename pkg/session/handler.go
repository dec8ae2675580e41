package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/finote/finote/pkg/ledger"
	"github.com/finote/finote/pkg/profile"
	"github.com/finote/finote/pkg/receipt"
	"github.com/finote/finote/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	ID          int64           `json:"id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Tags        []string        `json:"tags"`
	Mood        string          `json:"mood,omitempty"`
	Recurring   bool            `json:"recurring"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
}

type HealthDTO struct {
	Status     string   `json:"status"`
	DirtyUsers []string `json:"dirtyUsers,omitempty"`
}

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	uid, err := user.CurrentUid(r.Context())
	if err != nil {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}
	log.Debugf("opening session for user %s", uid)

	s, err := h.manager.Login(r.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrActiveSession) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{"state": string(s.State())}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	uid, err := user.CurrentUid(r.Context())
	if err != nil {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}
	h.manager.Logout(r.Context(), uid)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	expenses, err := s.Expenses()
	if err != nil {
		h.writeError(w, err)
		return
	}

	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, expenseToDTO(e))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := dtoToExpense(dto)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stored, err := s.AddExpense(r.Context(), e)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(expenseToDTO(stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := dtoToExpense(dto)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stored, err := s.UpdateExpense(r.Context(), id, e)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(expenseToDTO(stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.DeleteExpense(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	budgets, err := s.Budgets()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(budgets); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateBudgets(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var budgets map[string]decimal.Decimal
	if err := json.NewDecoder(r.Body).Decode(&budgets); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.UpdateBudgets(r.Context(), budgets); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	p, err := s.Profile()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var settings profile.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.UpdateSettings(r.Context(), settings); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateGoals(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	var goals []profile.Goal
	if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.SetGoals(r.Context(), goals); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateRegrets(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	var regrets []profile.RegretEntry
	if err := json.NewDecoder(r.Body).Decode(&regrets); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.SetRegrets(r.Context(), regrets); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateFuturePurchases(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	var purchases []profile.FuturePurchase
	if err := json.NewDecoder(r.Body).Decode(&purchases); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.SetFuturePurchases(r.Context(), purchases); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateSubscriptions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	var subscriptions []profile.Subscription
	if err := json.NewDecoder(r.Body).Decode(&subscriptions); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.SetSubscriptions(r.Context(), subscriptions); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ScanReceipt accepts a candidate expense record from the receipt
// extraction pipeline and records it through the regular AddExpense path.
func (h *Handler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var candidate receipt.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := candidate.Expense()
	if err != nil {
		h.writeError(w, err)
		return
	}

	stored, err := s.AddExpense(r.Context(), e)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(expenseToDTO(stored)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Health reports whether any live session has durable state lagging
// behind memory.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dto := HealthDTO{Status: "ok", DirtyUsers: h.manager.DirtyUsers()}
	if len(dto.DirtyUsers) > 0 {
		dto.Status = "degraded"
	}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	uid, err := user.CurrentUid(r.Context())
	if err != nil {
		http.Error(w, "no user", http.StatusUnauthorized)
		return nil, false
	}
	s, ok := h.manager.Get(uid)
	if !ok {
		http.Error(w, "no active session", http.StatusConflict)
		return nil, false
	}
	return s, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrActiveSession):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func expenseToDTO(e ledger.Expense) ExpenseDTO {
	createdAt := e.CreatedAt
	return ExpenseDTO{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.Format("2006-01-02"),
		Tags:        e.Tags,
		Mood:        string(e.Mood),
		Recurring:   e.Recurring,
		CreatedAt:   &createdAt,
	}
}

func dtoToExpense(dto ExpenseDTO) (ledger.Expense, error) {
	date, err := time.Parse("2006-01-02", dto.Date)
	if err != nil {
		return ledger.Expense{}, fmt.Errorf("%w: date %q is not a calendar date", ledger.ErrValidation, dto.Date)
	}
	return ledger.Expense{
		ID:          dto.ID,
		Amount:      dto.Amount,
		Category:    dto.Category,
		Description: dto.Description,
		Date:        date,
		Tags:        dto.Tags,
		Mood:        ledger.Mood(dto.Mood),
		Recurring:   dto.Recurring,
	}, nil
}
