package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderflow/orderflow/internal/platform/httpx"
	"github.com/orderflow/orderflow/internal/shared"
)

// Handler exposes the order lifecycle over JSON. Authorization and
// transition rules live in the service; the handler only translates HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers order routes. Callers must have passed the
// authentication middleware already.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales-orders", func(r chi.Router) {
		r.Get("/", h.ListSalesOrders)
		r.Post("/", h.CreateSalesOrder)
		r.Put("/{id}", h.UpdateSalesOrder)
		r.Delete("/{id}", h.DeleteSalesOrder)
		r.Post("/{id}/status", h.SetSalesOrderStatus)
	})
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", h.ListPurchaseOrders)
		r.Post("/{id}/status", h.SetPurchaseOrderStatus)
	})
}

func (h *Handler) CreateSalesOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req CreateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	order, err := h.service.CreateSalesOrder(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "create sales order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) ListSalesOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	orders, err := h.service.ListSalesOrders(r.Context(), actor)
	if err != nil {
		h.respondError(w, "list sales orders", err)
		return
	}
	if orders == nil {
		orders = []SalesOrderWithCreator{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) UpdateSalesOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	var req UpdateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	order, err := h.service.UpdateSalesOrder(r.Context(), actor, id, req)
	if err != nil {
		h.respondError(w, "update sales order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) DeleteSalesOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	if err := h.service.DeleteSalesOrder(r.Context(), actor, id); err != nil {
		h.respondError(w, "delete sales order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *Handler) SetSalesOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	var req SetStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	target := SalesOrderStatus(req.Status)
	if !target.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+req.Status)
		return
	}

	order, err := h.service.SetSalesOrderStatus(r.Context(), actor, id, target)
	if err != nil {
		h.respondError(w, "set sales order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	orders, err := h.service.ListPurchaseOrders(r.Context(), actor)
	if err != nil {
		h.respondError(w, "list purchase orders", err)
		return
	}
	if orders == nil {
		orders = []PurchaseOrderWithSalesOrder{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) SetPurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	var req SetStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	target := PurchaseOrderStatus(req.Status)
	if !target.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+req.Status)
		return
	}

	order, err := h.service.SetPurchaseOrderStatus(r.Context(), actor, id, target)
	if err != nil {
		h.respondError(w, "set purchase order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Debug(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
