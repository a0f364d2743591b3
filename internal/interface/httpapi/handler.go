// Package httpapi provides a thin net/http handler in front of the
// deposit ingress front (C8). It is deliberately a demonstration
// consumer of the SWORD-ish headers and receipt shape described by the
// interface contract — not a full SWORDv2 protocol binding, which
// remains out of scope.
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/scidataarchive/depositd/internal/application/ingress"
	"github.com/scidataarchive/depositd/internal/domain/deposit"
	pipeline "github.com/scidataarchive/depositd/internal/domain/errors"
	"github.com/scidataarchive/depositd/internal/logging"
)

const (
	headerPackaging   = "X-Packaging"
	headerContentMD5  = "Content-MD5"
	headerInProgress  = "In-Progress"
	packagingBagIt    = "http://purl.org/net/sword/package/BagIt"
)

// Receipt is the JSON shape returned to the client on successful receipt.
type Receipt struct {
	EditIRI            string   `json:"editIRI"`
	EditMediaIRI       string   `json:"editMediaIRI"`
	StatementURI       string   `json:"statementURI"`
	Packaging          []string `json:"packaging"`
	Treatment          string   `json:"treatment"`
	VerboseDescription string   `json:"verboseDescription"`
}

// ErrorBody is the JSON shape returned to the client on a synchronous rejection.
type ErrorBody struct {
	ErrorIRI string `json:"errorIRI"`
	Message  string `json:"message"`
}

const (
	errorIRIBadRequest        = "http://purl.org/net/sword/error/ErrorBadRequest"
	errorIRIChecksumMismatch  = "http://purl.org/net/sword/error/ErrorChecksumMismatch"
	errorIRIMethodNotAllowed  = "http://purl.org/net/sword/error/MethodNotAllowed"
)

// Handler wires the ingress front behind net/http.
type Handler struct {
	front   *ingress.Front
	baseURL string
	log     logging.Logger
}

// New returns a Handler. baseURL is used to build receipt IRIs.
func New(front *ingress.Front, baseURL string, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Noop
	}
	return &Handler{front: front, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// ServeHTTP accepts a single deposit part per request, identified by a
// path segment of the form /deposit/<depositId>/<filename>. A missing
// depositId segment mints a new one (first part of a new deposit).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		h.writeError(w, http.StatusMethodNotAllowed, errorIRIMethodNotAllowed, "only POST/PUT accepted")
		return
	}

	depositID, filename, err := parsePath(r.URL.Path)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errorIRIBadRequest, err.Error())
		return
	}
	if depositID == "" {
		depositID = uuid.NewString()
	}

	mimeType := deposit.MimeSingle
	if r.Header.Get(headerPackaging) == "chunked" {
		mimeType = deposit.MimeChunked
	}
	inProgress, _ := strconv.ParseBool(r.Header.Get(headerInProgress))

	receipt, err := h.front.Receive(r.Context(), ingress.Part{
		DepositID:   depositID,
		Filename:    filename,
		MD5:         strings.ToLower(r.Header.Get(headerContentMD5)),
		MimeType:    mimeType,
		InProgress:  inProgress,
		InputStream: r.Body,
	})
	if err != nil {
		h.writeClassifiedError(w, err)
		return
	}

	h.writeReceipt(w, depositID, filename, r.Header.Get(headerContentMD5), receipt)
}

func (h *Handler) writeReceipt(w http.ResponseWriter, depositID, filename, md5 string, receipt ingress.Receipt) {
	body := Receipt{
		EditIRI:            fmt.Sprintf("%s/container/%s", h.baseURL, depositID),
		EditMediaIRI:       fmt.Sprintf("%s/media/%s", h.baseURL, depositID),
		StatementURI:       fmt.Sprintf("%s/statement/%s", h.baseURL, depositID),
		Packaging:          []string{packagingBagIt},
		Treatment:          "[1] unpacking [2] verifying integrity [3] storing persistently",
		VerboseDescription: fmt.Sprintf("received successfully: %s; MD5: %s", filename, md5),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeClassifiedError(w http.ResponseWriter, err error) {
	var pe *pipeline.PipelineError
	if !stderrors.As(err, &pe) {
		h.writeError(w, http.StatusInternalServerError, errorIRIBadRequest, "unexpected failure")
		return
	}
	switch pe.Kind {
	case pipeline.KindChecksumMismatch:
		h.writeError(w, http.StatusBadRequest, errorIRIChecksumMismatch, pe.Message)
	case pipeline.KindMethodNotAllowed:
		h.writeError(w, http.StatusMethodNotAllowed, errorIRIMethodNotAllowed, pe.Message)
	case pipeline.KindBadRequest:
		h.writeError(w, http.StatusBadRequest, errorIRIBadRequest, pe.Message)
	default:
		h.log.Error("httpapi: unexpected classified error: %v", err)
		h.writeError(w, http.StatusInternalServerError, errorIRIBadRequest, pe.Message)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errorIRI, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorBody{ErrorIRI: errorIRI, Message: message})
}

// parsePath extracts (depositId, filename) from a request path of the
// form /deposit/<depositId>/<filename> or /deposit/<filename> (new deposit).
func parsePath(path string) (depositID, filename string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 2:
		return "", parts[1], nil
	case 3:
		return parts[1], parts[2], nil
	default:
		return "", "", fmt.Errorf("malformed deposit path %q", path)
	}
}
