package http

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"financepro/internal/core"
	applog "financepro/internal/log"
	"financepro/internal/ocr"
	"financepro/internal/services"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	period, err := parsePeriod(r, s.finance.CurrentPeriod())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	d, err := s.finance.Dashboard(r.Context(), userID, period)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	d.Transactions = nonNil(d.Transactions)
	d.ByCategory = nonNil(d.ByCategory)
	writeJSON(w, http.StatusOK, d)
}

type scanResponse struct {
	Form   core.TransactionForm `json:"form"`
	Notice string               `json:"notice,omitempty"`
}

// handleScanReceipt accepts a multipart upload with the photo in "image" and
// optional form fields to prefill. Recognition failures still answer 200 with
// the submitted form and a notice, so the user can keep typing.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if !s.finance.Capabilities().OCR {
		writeError(w, r, applog.OpScan, services.ErrFeatureDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ocr.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, applog.OpScan, ocr.ErrImageTooLarge)
			return
		}
		writeError(w, r, applog.OpScan, errBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, applog.OpScan, errBadRequest)
		return
	}
	defer file.Close()

	image, tooLarge, err := readLimited(file, ocr.MaxImageBytes)
	if err != nil {
		writeError(w, r, applog.OpScan, errBadRequest)
		return
	}
	if tooLarge {
		writeError(w, r, applog.OpScan, ocr.ErrImageTooLarge)
		return
	}

	base := transactionFormFromValues(r.FormValue, core.NewTransactionForm(s.finance.Today()))
	form, err := s.finance.ScanReceipt(r.Context(), image, base)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, scanResponse{Form: form})
	case errors.Is(err, ocr.ErrImageTooLarge), errors.Is(err, ocr.ErrUnsupportedImage), errors.Is(err, services.ErrFeatureDisabled):
		writeError(w, r, applog.OpScan, err)
	default:
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Receipt scan degraded to manual entry", applog.FieldError, err)
		writeJSON(w, http.StatusOK, scanResponse{
			Form:   form,
			Notice: "Could not read the receipt. Please fill in the fields manually.",
		})
	}
}

// handleExport streams the CSV report as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}
	var buf bytes.Buffer
	name, err := s.finance.Export(r.Context(), userID, &buf)
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
