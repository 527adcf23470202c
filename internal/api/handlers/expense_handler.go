package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"spendlog/internal/auth"
	"spendlog/internal/money"
	"spendlog/internal/services"
)

// ExpenseHandler handles HTTP requests for expense records. Every route it
// serves sits behind the session middleware, and every service call passes
// the session's user id as the owner.
type ExpenseHandler struct {
	service services.ExpenseServiceProvider
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(service services.ExpenseServiceProvider) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// ExpensePayload defines the structure for add-expense requests.
type ExpensePayload struct {
	Date          string       `json:"date"`
	Amount        money.Amount `json:"amount"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	PaymentMethod string       `json:"paymentMethod"`
}

// UpdatePayload defines the structure for edit-expense requests. Category
// and payment method are fixed at creation and not part of the update.
type UpdatePayload struct {
	Date        string       `json:"date"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
}

// Add creates a new expense for the session user and redirects to the
// overview page.
func (h *ExpenseHandler) Add(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload ExpensePayload
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		amount, err := money.Parse(r.PostFormValue("amount"))
		if err != nil {
			http.Error(w, "Invalid amount", http.StatusBadRequest)
			return
		}
		payload = ExpensePayload{
			Date:          r.PostFormValue("date"),
			Amount:        amount,
			Description:   r.PostFormValue("description"),
			Category:      r.PostFormValue("category"),
			PaymentMethod: r.PostFormValue("paymentMethod"),
		}
	}

	if err := validDate(payload.Date); err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}
	if payload.Description == "" || payload.Category == "" || payload.PaymentMethod == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	_, err := h.service.Create(r.Context(), sess.UserID, payload.Date, payload.Amount,
		payload.Description, payload.Category, payload.PaymentMethod)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to add expense")
		http.Error(w, "Error adding expense", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/view_expense.html", http.StatusSeeOther)
}

// List returns all of the session user's expenses as a JSON array.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	expenses, err := h.service.ListByOwner(r.Context(), sess.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to list expenses")
		http.Error(w, "Error retrieving expenses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(expenses)
}

// GetForEdit returns a single expense for the edit form. An expense owned by
// someone else answers exactly like one that does not exist.
func (h *ExpenseHandler) GetForEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		notFoundJSON(w)
		return
	}

	expense, err := h.service.GetByIDForOwner(r.Context(), sess.UserID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			notFoundJSON(w)
			return
		}
		log.Error().Err(err).Int64("expense_id", id).Msg("Failed to get expense")
		http.Error(w, "Error getting expense", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "success",
		"expense": expense,
	})
}

// Update changes date, amount, and description of one expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		notFoundJSON(w)
		return
	}

	var payload UpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validDate(payload.Date); err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}

	err = h.service.UpdateByIDForOwner(r.Context(), sess.UserID, id, payload.Date, payload.Amount, payload.Description)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			notFoundJSON(w)
			return
		}
		log.Error().Err(err).Int64("expense_id", id).Msg("Failed to update expense")
		http.Error(w, "Error updating expense", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Expense updated successfully"})
}

// Delete removes one expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		notFoundJSON(w)
		return
	}

	err = h.service.DeleteByIDForOwner(r.Context(), sess.UserID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			notFoundJSON(w)
			return
		}
		log.Error().Err(err).Int64("expense_id", id).Msg("Failed to delete expense")
		http.Error(w, "Error deleting expense", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Expense deleted successfully"})
}

// Total returns the sum of the session user's expenses, zero when they have
// none.
func (h *ExpenseHandler) Total(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	total, err := h.service.SumByOwner(r.Context(), sess.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to sum expenses")
		http.Error(w, "Error calculating total expenses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]money.Amount{"total": total})
}

func notFoundJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "Expense not found",
	})
}

func validDate(s string) error {
	_, err := time.Parse("2006-01-02", s)
	return err
}
