package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"loyalty-wallet/internal/capture"
	"loyalty-wallet/internal/model"
	"loyalty-wallet/internal/service"
	"loyalty-wallet/pkg/apierror"
	"loyalty-wallet/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CardHandler handles card CRUD on the local collection.
type CardHandler struct {
	wallet *service.WalletService
}

// NewCardHandler creates a new card handler.
func NewCardHandler(wallet *service.WalletService) *CardHandler {
	return &CardHandler{wallet: wallet}
}

// CardView is a card with its derived payload class.
type CardView struct {
	model.Card
	Class          model.PayloadClass `json:"class"`
	RendererFormat string             `json:"renderer_format"`
}

func viewOf(c model.Card) CardView {
	return CardView{Card: c, Class: c.Class(), RendererFormat: c.RendererFormat()}
}

// ScanRequest is the body of POST /cards/scan: a decoded code plus the
// fields the user entered.
type ScanRequest struct {
	Text      string `json:"text"`
	Symbology string `json:"symbology"`
	Nickname  string `json:"nickname"`
	Retailer  string `json:"retailer"`
	Country   string `json:"country"`
}

// List handles GET /api/v1/cards
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cards, err := h.wallet.List(r.Context(), model.Filter{
		Retailer: q.Get("retailer"),
		Country:  q.Get("country"),
		Query:    q.Get("q"),
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, viewOf(c))
	}
	response.List(w, views, len(views))
}

// Create handles POST /api/v1/cards
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	card, err := h.wallet.Add(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, viewOf(*card))
}

// Scan handles POST /api/v1/cards/scan
func (h *CardHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	scan := capture.Result{Text: req.Text, Symbology: req.Symbology}
	card, err := h.wallet.Ingest(r.Context(), scan, req.Nickname, req.Retailer, req.Country)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, viewOf(*card))
}

// Get handles GET /api/v1/cards/{id}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.wallet.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, viewOf(*card))
}

// Delete handles DELETE /api/v1/cards/{id}
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.wallet.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// Code handles GET /api/v1/cards/{id}/code.png
func (h *CardHandler) Code(w http.ResponseWriter, r *http.Request) {
	img, err := h.wallet.Render(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Payload-Class", string(img.Class))
	w.Header().Set("X-Renderer-Format", img.Format)
	w.WriteHeader(http.StatusOK)
	w.Write(img.PNG)
}
