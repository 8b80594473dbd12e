package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JASSBR/invoice-usdc-base/invoices"
	"github.com/JASSBR/invoice-usdc-base/types"
	"github.com/JASSBR/invoice-usdc-base/utils"
)

type createInvoiceRequest struct {
	VendorAddress string `json:"vendorAddress"`
	AmountUsdc    string `json:"amountUsdc"`
	Description   string `json:"description"`
}

// handleVerify runs the verification sequence and, on a positive verdict,
// performs the PAID transition. The transition is the only write and is
// idempotent per txHash via the store's consumption ledger.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", "")
		return
	}

	req, err := utils.ParseVerificationRequest(body)
	if err != nil {
		var pe *types.PaymentError
		if errors.As(err, &pe) {
			writeError(w, http.StatusBadRequest, pe.Message, "")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "")
		return
	}

	result, err := s.verifier.Verify(r.Context(), req)
	if err != nil {
		s.log.Error("verification error", map[string]any{
			"invoiceId": req.InvoiceID,
			"txHash":    req.TxHash,
			"error":     err.Error(),
		})
		writeError(w, http.StatusInternalServerError,
			"Internal server error during verification", err.Error())
		return
	}

	if !result.Verified {
		writeError(w, statusForCode(result.Code), result.InvalidReason, "")
		return
	}

	if err := s.settle(w, r, result); err != nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"verified":        true,
		"invoiceId":       result.InvoiceID,
		"txHash":          result.TxHash,
		"blockNumber":     result.BlockNumber,
		"recipient":       result.Recipient,
		"amount":          result.Amount,
		"amountFormatted": result.AmountFormatted,
		"message":         result.Message,
	})
}

// settle marks the invoice paid. A non-nil return means a response has
// already been written.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, result *types.VerificationResult) error {
	err := s.store.MarkPaid(r.Context(), result.InvoiceID, result.TxHash, result.BlockNumber)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, invoices.ErrNotFound):
		writeError(w, http.StatusNotFound, "Invoice not found", "")
	case errors.Is(err, invoices.ErrTxAlreadyConsumed):
		writeError(w, http.StatusConflict,
			"Transaction already used to pay another invoice", "")
	case errors.Is(err, invoices.ErrAlreadyPaid):
		writeError(w, http.StatusConflict,
			"Invoice already paid by a different transaction", "")
	default:
		s.log.Error("settlement write failed", map[string]any{
			"invoiceId": result.InvoiceID,
			"error":     err.Error(),
		})
		writeError(w, http.StatusInternalServerError,
			"Failed to record payment", "")
	}
	return err
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "")
		return
	}

	inv, err := s.store.CreateInvoice(r.Context(), req.VendorAddress, req.AmountUsdc, req.Description)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", "")
		return
	}
	if list == nil {
		list = []*types.Invoice{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	inv, err := s.store.GetInvoice(r.Context(), id)
	if errors.Is(err, invoices.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Invoice not found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch invoice", "")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// statusForCode maps rejection codes to HTTP statuses: retryable ledger
// reads are distinguishable from definitive verdicts, which are all caller
// errors.
func statusForCode(code string) int {
	switch code {
	case types.ErrTxNotFound:
		return http.StatusNotFound
	case types.ErrTransientRead:
		return http.StatusServiceUnavailable
	case types.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]any{"error": message}
	if details != "" {
		body["details"] = details
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
