package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/dto"
	"github.com/broce-labs/partsline/internal/presentation/http/request"
	"github.com/broce-labs/partsline/internal/presentation/http/response"
	service "github.com/broce-labs/partsline/internal/service/order"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/broce-labs/partsline/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. All order routes require
// an authenticated principal.
func Register(e *echo.Echo, h *Handler, tokens *auth.Service) {
	g := e.Group("/orders", tokens.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PUT("/:id/status", h.promote)
	g.POST("/:id/parts", h.addPart)
	g.PATCH("/details/:detailId", h.updateDetail)
}

type detailPayload struct {
	MachineSerialNum json.RawMessage `json:"machine_serial_num"`
	PartNumber       string          `json:"part_number"`
	Quantity         int64           `json:"quantity"`
}

type createPayload struct {
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingState   string          `json:"shipping_state"`
	ShippingZip     json.RawMessage `json:"shipping_zip"`
	PONumber        string          `json:"po_number"`
	OrderDetails    []detailPayload `json:"order_details"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload createPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	input := service.CreateInput{
		ShippingAddress: payload.ShippingAddress,
		ShippingCity:    payload.ShippingCity,
		ShippingState:   payload.ShippingState,
		PONumber:        payload.PONumber,
	}
	if zip, ok := request.Int(string(payload.ShippingZip)); ok {
		input.ShippingZip = zip
	}
	for _, d := range payload.OrderDetails {
		detail := service.DetailInput{
			PartNumber: d.PartNumber,
			Quantity:   d.Quantity,
		}
		if serial, ok := request.Int(string(d.MachineSerialNum)); ok {
			detail.MachineSerialNum = serial
		}
		input.Details = append(input.Details, detail)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.Int64("user.id", principal.ID)))
	defer span.End()

	order, err := h.svc.Create(ctx, principal, input)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, principal, request.CSV(c.QueryParam("status")))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, principal, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order)).Build()
}

type updatePayload struct {
	ShippingAddress *string         `json:"shipping_address"`
	ShippingCity    *string         `json:"shipping_city"`
	ShippingState   *string         `json:"shipping_state"`
	ShippingZip     json.RawMessage `json:"shipping_zip"`
	PONumber        *string         `json:"po_number"`
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload updatePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	patch := service.OrderPatch{
		ShippingAddress: payload.ShippingAddress,
		ShippingCity:    payload.ShippingCity,
		ShippingState:   payload.ShippingState,
		PONumber:        payload.PONumber,
	}
	if zip, ok := request.Int(string(payload.ShippingZip)); ok {
		patch.ShippingZip = &zip
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.UpdateOrder(ctx, principal, id, patch); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]int64{"id": id}).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, principal, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) promote(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Status == "" {
		return b.WithError(errorbank.BadRequest("no status provided")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.promote", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	if err := h.svc.Promote(ctx, principal, id, payload.Status); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"status": payload.Status}).Build()
}

type addPartPayload struct {
	MachineSerialNum json.RawMessage `json:"machine_serial_num"`
	PartNumber       string          `json:"part_number"`
	Quantity         int64           `json:"quantity"`
}

func (h *Handler) addPart(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload addPartPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	input := service.AddPartInput{
		PartNumber: payload.PartNumber,
		Quantity:   payload.Quantity,
	}
	if serial, ok := request.Int(string(payload.MachineSerialNum)); ok {
		input.MachineSerialNum = serial
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.addPart", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("part.number", input.PartNumber),
	))
	defer span.End()

	if err := h.svc.AddPart(ctx, principal, id, input); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(map[string]int64{"order_id": id}).Build()
}

type detailUpdatePayload struct {
	Quantity          *int64   `json:"quantity"`
	Price             *float64 `json:"price"`
	Discount          *float64 `json:"discount"`
	ShippingOptionID  *int64   `json:"shipping_option_id"`
	ShippingDetailID  *int64   `json:"shipping_detail_id"`
	ShippingAddressID *int64   `json:"shipping_address_id"`
	Status            string   `json:"status"`
}

func (h *Handler) updateDetail(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.PrincipalFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := strconv.ParseInt(c.Param("detailId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload detailUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	patch := service.DetailPatch{
		Quantity:          payload.Quantity,
		Price:             payload.Price,
		Discount:          payload.Discount,
		ShippingOptionID:  payload.ShippingOptionID,
		ShippingDetailID:  payload.ShippingDetailID,
		ShippingAddressID: payload.ShippingAddressID,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateDetail", trace.WithAttributes(attribute.Int64("order_detail.id", id)))
	defer span.End()

	if err := h.svc.UpdateDetail(ctx, principal, id, patch, payload.Status); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]int64{"id": id}).Build()
}
