package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
)

// CartRegistry hands out the cart controller of a browser session.
type CartRegistry interface {
	Controller(sessionID string) *service.CartController
}

type CartHandler struct {
	carts CartRegistry
}

func (h CartHandler) controller(r *http.Request) *service.CartController {
	return h.carts.Controller(SessionID(r.Context()))
}

func (h CartHandler) respondCart(
	w http.ResponseWriter, status int, c *service.CartController, s domain.CartSnapshot,
) {
	respondJSON(w, status, toCart(s, c.DrawerOpen(), c.State().String()))
}

func (h CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Get"
	log := slog.With("op", op)

	c := h.controller(r)
	s, err := c.Cart(r.Context())
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	h.respondCart(w, http.StatusOK, c, s)
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c := h.controller(r)
	s, err := c.AddItem(r.Context(), req.ProductID, req.Quantity, req.VariationID)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	log.Info("item added", "productID", req.ProductID, "quantity", req.Quantity)
	h.respondCart(w, http.StatusCreated, c, s)
}

func (h CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.SetQuantity"
	log := slog.With("op", op)

	var req SetQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c := h.controller(r)
	s, err := c.SetQuantity(r.Context(), chi.URLParam(r, "key"), req.Quantity)
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	h.respondCart(w, http.StatusOK, c, s)
}

func (h CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveLine"
	log := slog.With("op", op)

	c := h.controller(r)
	s, err := c.RemoveLine(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	h.respondCart(w, http.StatusOK, c, s)
}

func (h CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Clear"
	log := slog.With("op", op)

	c := h.controller(r)
	s, err := c.Clear(r.Context())
	if err != nil {
		respondDomainError(w, log, err)
		return
	}
	h.respondCart(w, http.StatusOK, c, s)
}

// SetDrawer never calls the upstream. An unloaded cart reads as empty.
func (h CartHandler) SetDrawer(w http.ResponseWriter, r *http.Request) {
	var req DrawerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c := h.controller(r)
	c.SetDrawer(req.Open)

	s, ok := c.Snapshot()
	if !ok {
		s = domain.EmptyCart()
	}
	h.respondCart(w, http.StatusOK, c, s)
}
