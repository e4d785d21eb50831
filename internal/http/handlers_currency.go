package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/log"
)

// conversionView adds the display line to a result.
type conversionView struct {
	currency.Result
	Text string `json:"text"`
}

func newConversionView(r currency.Result) conversionView {
	return conversionView{Result: r, Text: r.String()}
}

// parseDecimal reads an amount field. Empty is allowed only when optional.
func parseDecimal(s string, optional bool) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" && optional {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	return d, nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	amount, err := parseDecimal(p.Get("amount"), false)
	if err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpConvert)
		return
	}
	res, err := s.svc.Converter.Convert(r.Context(), currency.Request{
		Amount: amount,
		From:   p.Get("from"),
		To:     p.Get("to"),
	})
	if err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpConvert)
		return
	}
	NewResponse().JSON(newConversionView(res)).Write(w)
}

func (s *Server) handleQuickConvert(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	amount, err := parseDecimal(p.Get("amount"), true)
	if err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpConvert)
		return
	}
	res, err := s.svc.Converter.QuickConvert(r.Context(), currency.Pair{From: p.Get("from"), To: p.Get("to")}, amount)
	if err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpConvert)
		return
	}
	NewResponse().JSON(newConversionView(res)).Write(w)
}

// handleSwap returns the reversed pair; it does not convert.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	NewResponse().JSON(currency.Swap(currency.Pair{From: p.Get("from"), To: p.Get("to")})).Write(w)
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	NewResponse().JSON(currency.PopularPairs()).Write(w)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	res, ok := s.svc.Converter.Latest()
	if !ok {
		NotFoundError("no conversion yet").Write(w)
		return
	}
	NewResponse().JSON(newConversionView(res)).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	entries, err := s.svc.Converter.History().List(r.Context())
	if err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpList)
		return
	}
	NewResponse().JSON(entries).Write(w)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	raw := p.Get("id")
	id, err := core.ParseRecordID(raw)
	if err != nil {
		BadRequestError("invalid id").Write(w)
		return
	}
	removed, err := s.svc.Converter.History().Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpDelete)
		return
	}
	NewResponse().JSON(deleteResult{ID: id.String(), Deleted: removed}).Write(w)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.svc.Converter.History().Clear(r.Context()); err != nil {
		s.fail(w, r, err, log.ComponentCurrency, log.OpDelete)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
