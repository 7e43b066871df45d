// Package itemapi serves the item catalogue forms under /validation/v1/items.
//
// Every route expects a logged-in member; the caller supplies the guard.
package itemapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gltdhd/Spring-MVC-2/cmd/internal/httpjson"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/item"
	"github.com/gltdhd/Spring-MVC-2/cmd/internal/metrics"
)

// BasePath is the route prefix for the catalogue.
const BasePath = "/validation/v1/items"

const defaultMaxBodyBytes = 1 << 20

// Handler serves item list, detail, add and edit.
type Handler struct {
	log          *slog.Logger
	store        item.Store
	metrics      *metrics.Metrics
	maxBodyBytes int64
}

// NewHandler builds a Handler over store. m may be nil.
func NewHandler(log *slog.Logger, store item.Store, m *metrics.Metrics, maxBodyBytes int64) (*Handler, error) {
	if store == nil {
		return nil, errors.New("itemapi: store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{log: log, store: store, metrics: m, maxBodyBytes: maxBodyBytes}, nil
}

// Register mounts the routes on mux, each wrapped by guard.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, guard(fn))
	}
	route("GET "+BasePath, h.handleList)
	route("GET "+BasePath+"/add", h.handleAddForm)
	route("POST "+BasePath+"/add", h.handleAdd)
	route("GET "+BasePath+"/{itemId}", h.handleShow)
	route("GET "+BasePath+"/{itemId}/edit", h.handleEditForm)
	route("POST "+BasePath+"/{itemId}/edit", h.handleEdit)
}

type listResponse struct {
	Items []item.Item `json:"items"`
}

type showResponse struct {
	Item   item.Item `json:"item"`
	Status bool      `json:"status"`
}

type formResponse struct {
	Item item.Item `json:"item"`
}

type invalidResponse struct {
	Errors item.Errors `json:"errors"`
	Item   item.Item   `json:"item"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.FindAll(r.Context())
	if err != nil {
		h.serverError(w, r, "item.list.failed", err)
		return
	}
	if items == nil {
		items = []item.Item{}
	}
	httpjson.Write(w, http.StatusOK, listResponse{Items: items})
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	it, ok := h.lookup(w, r)
	if !ok {
		return
	}
	status, _ := strconv.ParseBool(r.URL.Query().Get("status"))
	httpjson.Write(w, http.StatusOK, showResponse{Item: it, Status: status})
}

func (h *Handler) handleAddForm(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, formResponse{Item: item.Item{}})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	it, bindErrs, ok := h.bind(w, r)
	if !ok {
		return
	}
	errs := mergeErrors(item.Validate(it), bindErrs)
	if errs.HasErrors() {
		h.rejected(w, r, "item.add.invalid", it, errs)
		return
	}

	saved, err := h.store.Save(ctx, it)
	if err != nil {
		h.serverError(w, r, "item.add.failed", err)
		return
	}
	h.log.InfoContext(ctx, "item.added", "item_id", saved.ID)
	httpjson.Redirect(w, r, fmt.Sprintf("%s/%d?status=true", BasePath, saved.ID))
}

func (h *Handler) handleEditForm(w http.ResponseWriter, r *http.Request) {
	it, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, formResponse{Item: it})
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}

	it, bindErrs, ok := h.bind(w, r)
	if !ok {
		return
	}
	it.ID = current.ID
	errs := mergeErrors(item.Validate(it), bindErrs)
	if errs.HasErrors() {
		h.rejected(w, r, "item.edit.invalid", it, errs)
		return
	}

	if err := h.store.Update(ctx, current.ID, it); err != nil {
		if errors.Is(err, item.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "not_found", "item not found")
			return
		}
		h.serverError(w, r, "item.edit.failed", err)
		return
	}
	h.log.InfoContext(ctx, "item.updated", "item_id", current.ID)
	httpjson.Redirect(w, r, fmt.Sprintf("%s/%d", BasePath, current.ID))
}

// bind decodes the item form. A type mismatch on a known field becomes a
// field error; any other malformed body is answered here and ok is false.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request) (item.Item, item.Errors, bool) {
	var it item.Item
	err := httpjson.Decode(w, r, h.maxBodyBytes, &it)
	if err == nil {
		return it, nil, true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && isItemField(typeErr.Field) {
		return it, item.Errors{typeErr.Field: typeErr.Field + " has an invalid value"}, true
	}
	httpjson.Error(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
	return item.Item{}, nil, false
}

// mergeErrors lays binding errors over rule errors for the same field.
func mergeErrors(rules, binding item.Errors) item.Errors {
	for k, v := range binding {
		rules[k] = v
	}
	return rules
}

func isItemField(name string) bool {
	switch name {
	case "itemName", "price", "quantity":
		return true
	default:
		return false
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (item.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil || id <= 0 {
		httpjson.Error(w, http.StatusNotFound, "not_found", "item not found")
		return item.Item{}, false
	}
	it, err := h.store.FindByID(r.Context(), id)
	if errors.Is(err, item.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "not_found", "item not found")
		return item.Item{}, false
	}
	if err != nil {
		h.serverError(w, r, "item.lookup.failed", err)
		return item.Item{}, false
	}
	return it, true
}

func (h *Handler) rejected(w http.ResponseWriter, r *http.Request, event string, it item.Item, errs item.Errors) {
	fields := errs.Fields()
	h.metrics.ItemInvalid(fields)
	h.log.InfoContext(r.Context(), event, "fields", fields)
	httpjson.Write(w, http.StatusBadRequest, invalidResponse{Errors: errs, Item: it})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, event string, err error) {
	h.log.ErrorContext(r.Context(), event, "err", err)
	httpjson.Error(w, http.StatusInternalServerError, "server_error", "server error")
}
