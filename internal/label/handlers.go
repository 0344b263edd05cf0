package label

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/zombor/expiry-tracker/internal/expiry"
)

// maxUploadSize bounds label uploads; phone photos can be large
const maxUploadSize = int64(50 << 20) // 50MB

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type textRequest struct {
	Text string `json:"text"`
}

type classifyRequest struct {
	Exp   string `json:"exp"`
	Today string `json:"today"`
}

type classifyResponse struct {
	expiry.Classification
	Today expiry.Date `json:"today"`
}

type manualEntryRequest struct {
	ProductName string `json:"product_name"`
	MfgDate     string `json:"mfg_date"`
	ExpDate     string `json:"exp_date"`
}

type productsRequest struct {
	Entries []Product `json:"entries"`
}

type dashboardResponse struct {
	Today          expiry.Date     `json:"today"`
	NearExpiryDays int             `json:"near_expiry_days"`
	Entries        []ProductStatus `json:"entries"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into v, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("Invalid request body", "request_id", middleware.GetReqID(r.Context()), "error", err)
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNormalize returns the normalized form of the given text
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, textRequest{Text: s.service.Normalize(req.Text)})
}

// handleExtract finds and parses dates in already-normalized text
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, s.service.ExtractDates(req.Text))
}

// handleClassify classifies an ISO expiry date against today or a given day
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var today *expiry.Date
	if req.Today != "" {
		d, err := expiry.ParseISODate(req.Today)
		if err != nil {
			respondError(w, http.StatusBadRequest, "today must be a valid YYYY-MM-DD date")
			return
		}
		today = &d
	}

	c, day, err := s.service.Classify(parseOptionalISO(req.Exp), today)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, classifyResponse{Classification: c, Today: day})
}

// handleAnalyze runs OCR text through the whole pipeline
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.AnalyzeText(req.Text)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			respondError(w, http.StatusBadRequest, "No text provided")
			return
		}
		slog.Error("Error analyzing text", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleScan handles a label image upload
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		respondError(w, http.StatusBadRequest, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		respondError(w, http.StatusBadRequest, errorMsg)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		respondError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	result, err := s.service.Scan(r.Context(), header.Filename, data, contentType)
	if err != nil {
		if errors.Is(err, ErrNoScanner) {
			respondError(w, http.StatusServiceUnavailable, "Label scanning is not configured")
			return
		}
		slog.Error("Error scanning label",
			"request_id", middleware.GetReqID(r.Context()),
			"filename", header.Filename,
			"error", err,
		)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// contentTypeFromExt guesses a content type for phones that send none
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleManualEntry builds a product from typed-in dates
func (s *Server) handleManualEntry(w http.ResponseWriter, r *http.Request) {
	var req manualEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.service.ManualEntry(req.ProductName, req.MfgDate, req.ExpDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// handleDashboard recomputes the status of every product the caller holds
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var req productsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	statuses, err := s.service.Dashboard(req.Entries)
	if err != nil {
		slog.Error("Error building dashboard", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, dashboardResponse{
		Today:          s.service.Today(),
		NearExpiryDays: s.service.NearExpiryDays(),
		Entries:        statuses,
	})
}

// handleReport returns the dashboard as an XLSX download
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req productsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	data, err := s.service.Report(req.Entries)
	if err != nil {
		slog.Error("Error building report", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="expiry-report.xlsx"`)
	w.Write(data)
}
