// Package httpapi exposes the ledger over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	app "github.com/bfp-network/burnledger/internal/app"
	"github.com/bfp-network/burnledger/internal/app/domain/asset"
	"github.com/bfp-network/burnledger/internal/app/domain/proposal"
	"github.com/bfp-network/burnledger/internal/app/services/balances"
	"github.com/bfp-network/burnledger/internal/app/services/burn"
	"github.com/bfp-network/burnledger/internal/app/services/ingest"
	"github.com/bfp-network/burnledger/internal/app/services/proposals"
	"github.com/bfp-network/burnledger/internal/app/storage"
)

var (
	errInvalidToken  = errors.New("invalid token")
	errNoIdentity    = errors.New("authentication required")
	errNotNotifier   = errors.New("transfer hooks are notifier-only")
	errBadProposalID = errors.New("invalid proposal id")
)

// handler bundles HTTP endpoints for the ledger services.
type handler struct {
	app *app.Application
	// notifier is the identity allowed to post transfer notifications.
	notifier string
}

// NewHandler returns a mux exposing the ledger REST API. notifier names the
// authenticated identity accepted on the transfer hook.
func NewHandler(application *app.Application, notifier string) http.Handler {
	h := &handler{app: application, notifier: notifier}
	mux := http.NewServeMux()
	mux.HandleFunc("/proposals", h.proposals)
	mux.HandleFunc("/proposals/", h.proposalResources)
	mux.HandleFunc("/balances/", h.balance)
	mux.HandleFunc("/hooks/transfers", h.transferHook)
	return mux
}

func (h *handler) proposals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		caller := Identity(r)
		if caller == "" {
			writeError(w, http.StatusUnauthorized, errNoIdentity)
			return
		}
		var payload struct {
			Proposer  string `json:"proposer"`
			Title     string `json:"title"`
			Summary   string `json:"summary"`
			Markdown  string `json:"markdown"`
			Requested string `json:"requested"`
			Msig      string `json:"msig"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		requested, err := asset.Parse(payload.Requested)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		id, err := h.app.Proposals.Create(r.Context(), caller, proposal.Proposal{
			Proposer:  payload.Proposer,
			Title:     payload.Title,
			Summary:   payload.Summary,
			Markdown:  payload.Markdown,
			Requested: requested,
			Msig:      payload.Msig,
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})

	case http.MethodGet:
		sort, _ := strconv.Atoi(r.URL.Query().Get("sort"))
		limit, offset := pageParams(r)
		list, err := h.app.Query.ListProposals(r.Context(), proposal.SortMode(sort), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"proposals": list})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) proposalResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/proposals"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errBadProposalID)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			detail, err := h.app.Query.GetProposal(r.Context(), id)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, detail)
		case http.MethodDelete:
			caller := Identity(r)
			if caller == "" {
				writeError(w, http.StatusUnauthorized, errNoIdentity)
				return
			}
			remaining, err := h.app.Proposals.Cancel(r.Context(), caller, id)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"remaining": remaining})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "unpropose":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		caller := Identity(r)
		if caller == "" {
			writeError(w, http.StatusUnauthorized, errNoIdentity)
			return
		}
		if err := h.app.Proposals.Unpropose(r.Context(), caller, id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "burns":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		caller := Identity(r)
		if caller == "" {
			writeError(w, http.StatusUnauthorized, errNoIdentity)
			return
		}
		var payload struct {
			Burner   string `json:"burner"`
			Quantity string `json:"quantity"`
			Message  string `json:"message"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		quantity, err := asset.Parse(payload.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		commentID, err := h.app.Burn.Burn(r.Context(), caller, payload.Burner, id, quantity, payload.Message)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]uint64{"comment_id": commentID})

	case "comments":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		limit, offset := pageParams(r)
		comments, err := h.app.Query.ListComments(r.Context(), id, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account := strings.Trim(strings.TrimPrefix(r.URL.Path, "/balances"), "/")
	if account == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	b, err := h.app.Query.GetBalance(r.Context(), account)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) transferHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if Identity(r) != h.notifier || h.notifier == "" {
		writeError(w, http.StatusForbidden, errNotNotifier)
		return
	}

	var payload struct {
		Channel  string `json:"channel"`
		From     string `json:"from"`
		To       string `json:"to"`
		Quantity string `json:"quantity"`
		Memo     string `json:"memo"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	quantity, err := asset.Parse(payload.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch payload.Channel {
	case "native":
		err = h.app.Ingest.OnNativeTransfer(r.Context(), payload.From, payload.To, quantity, payload.Memo)
	case "secondary":
		err = h.app.Ingest.OnSecondaryTransfer(r.Context(), payload.From, payload.To, quantity, payload.Memo)
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown transfer channel"))
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, balances.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, proposals.ErrUnauthorized), errors.Is(err, burn.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, proposals.ErrTitleTooLong),
		errors.Is(err, proposals.ErrSummaryTooLong),
		errors.Is(err, proposals.ErrRequestedNotPositive),
		errors.Is(err, burn.ErrAmountNotPositive),
		errors.Is(err, burn.ErrWrongCurrency),
		errors.Is(err, ingest.ErrNotPositive):
		return http.StatusBadRequest
	default:
		// Anything the service layer did not classify is a server fault,
		// not a malformed request.
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
