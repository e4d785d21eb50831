package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// savedStatus is 201 for a new record and 200 for an edit.
func savedStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

type deleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// parseDelete reads the record key and insists on an explicit confirmation.
func parseDelete(r *http.Request, keyField string) (string, *ResponseBuilder) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		return "", resp
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		return "", resp
	}
	key := p.Get(keyField)
	if key == "" {
		return "", BadRequestError("missing " + keyField)
	}
	if !confirmed(p.Get("confirm")) {
		return "", BadRequestError("delete must be confirmed")
	}
	return key, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		view, err := s.svc.Expenses.View(r.Context(), services.ExpenseQuery{
			Sort:     q.Get("sort"),
			Category: q.Get("category"),
			Period:   q.Get("period"),
		})
		if err != nil {
			s.fail(w, r, err, log.ComponentExpense, log.OpList)
			return
		}
		NewResponse().JSON(view).Write(w)
	case http.MethodPost:
		p, resp := ParseBodyOrFail(r)
		if resp != nil {
			resp.Write(w)
			return
		}
		e, created, err := s.svc.Expenses.Save(r.Context(), services.ExpenseInput{
			ID:       p.Get("id"),
			Title:    p.Get("title"),
			Category: p.Get("category"),
			Amount:   p.Get("amount"),
			Date:     p.Get("date"),
		})
		if err != nil {
			s.fail(w, r, err, log.ComponentExpense, log.OpCreate)
			return
		}
		NewResponse().Status(savedStatus(created)).JSON(e).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, resp := parseDelete(r, "id")
	if resp != nil {
		resp.Write(w)
		return
	}
	removed, err := s.svc.Expenses.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, log.ComponentExpense, log.OpDelete)
		return
	}
	NewResponse().JSON(deleteResult{ID: id, Deleted: removed}).Write(w)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		view, err := s.svc.Income.View(r.Context(), services.IncomeQuery{
			Sort:  q.Get("sort"),
			Month: q.Get("month"),
		})
		if err != nil {
			s.fail(w, r, err, log.ComponentIncome, log.OpList)
			return
		}
		NewResponse().JSON(view).Write(w)
	case http.MethodPost:
		p, resp := ParseBodyOrFail(r)
		if resp != nil {
			resp.Write(w)
			return
		}
		i, created, err := s.svc.Income.Save(r.Context(), services.IncomeInput{
			ID:     p.Get("id"),
			Title:  p.Get("title"),
			Source: p.Get("source"),
			Amount: p.Get("amount"),
			Date:   p.Get("date"),
		})
		if err != nil {
			s.fail(w, r, err, log.ComponentIncome, log.OpCreate)
			return
		}
		NewResponse().Status(savedStatus(created)).JSON(i).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, resp := parseDelete(r, "id")
	if resp != nil {
		resp.Write(w)
		return
	}
	removed, err := s.svc.Income.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, log.ComponentIncome, log.OpDelete)
		return
	}
	NewResponse().JSON(deleteResult{ID: id, Deleted: removed}).Write(w)
}

// budgetsView is the budget page: every month reconciled plus the current one.
type budgetsView struct {
	Budgets []ledger.BudgetStatus `json:"budgets"`
	Current ledger.BudgetStatus   `json:"current"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		month := r.URL.Query().Get("month")
		if month != "" {
			st, err := s.svc.Budgets.Status(r.Context(), month)
			if err != nil {
				s.fail(w, r, err, log.ComponentBudget, log.OpRead)
				return
			}
			NewResponse().JSON(st).Write(w)
			return
		}
		all, err := s.svc.Budgets.Statuses(r.Context())
		if err != nil {
			s.fail(w, r, err, log.ComponentBudget, log.OpList)
			return
		}
		current, err := s.svc.Budgets.Status(r.Context(), core.MonthOf(s.now()).String())
		if err != nil {
			s.fail(w, r, err, log.ComponentBudget, log.OpRead)
			return
		}
		NewResponse().JSON(budgetsView{Budgets: all, Current: current}).Write(w)
	case http.MethodPost:
		p, resp := ParseBodyOrFail(r)
		if resp != nil {
			resp.Write(w)
			return
		}
		b, created, err := s.svc.Budgets.Set(r.Context(), services.BudgetInput{
			Month:  p.Get("month"),
			Amount: p.Get("amount"),
		})
		if err != nil {
			s.fail(w, r, err, log.ComponentBudget, log.OpUpdate)
			return
		}
		NewResponse().Status(savedStatus(created)).JSON(b).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	month, resp := parseDelete(r, "month")
	if resp != nil {
		resp.Write(w)
		return
	}
	removed, err := s.svc.Budgets.Delete(r.Context(), month)
	if err != nil {
		s.fail(w, r, err, log.ComponentBudget, log.OpDelete)
		return
	}
	NewResponse().JSON(deleteResult{ID: month, Deleted: removed}).Write(w)
}
