// Package server wires the HTTP transport: the JSON API under /api and the
// public redirect route at the root.
package server

import (
	"encoding/json"
	"errors"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"linkboard/internal/biz"
	"linkboard/internal/conf"
	"linkboard/internal/domain"
	"linkboard/internal/service"
	"linkboard/pkg/problemdetails"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, registry *service.RegistryService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.HTTP.Network != "" {
		opts = append(opts, http.Network(c.HTTP.Network))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.HTTP.Addr))
	}
	if c.HTTP.Timeout != "" {
		if d, err := time.ParseDuration(c.HTTP.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}
	srv := http.NewServer(opts...)

	h := &handlers{registry: registry, log: log.NewHelper(logger)}

	srv.HandleFunc("/api/links", h.links)
	srv.HandleFunc("/api/links/{slug}", h.link)
	srv.HandleFunc("/api/links/{slug}/title", h.renameLink)
	srv.HandleFunc("/api/links/{slug}/stats", h.linkStats)
	srv.HandleFunc("/api/slugs/suggest", h.suggestSlug)
	srv.HandleFunc("/api/slugs/{slug}/availability", h.checkAvailability)
	srv.HandleFunc("/api/owners/count", h.ownerCount)

	// The catch-all redirect route goes last so /api wins on overlap.
	srv.HandleFunc("/{slug}", h.redirect)

	return srv
}

type handlers struct {
	registry *service.RegistryService
	log      *log.Helper
}

func (h *handlers) links(w nethttp.ResponseWriter, r *nethttp.Request) {
	switch r.Method {
	case nethttp.MethodPost:
		h.createLink(w, r)
	case nethttp.MethodGet:
		h.listLinks(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(nethttp.StatusMethodNotAllowed)
	}
}

func (h *handlers) createLink(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req service.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeProblem(w, problemdetails.New(400, problemdetails.TypeValidationError, "Malformed Request", "request body is not valid JSON"))
		return
	}

	reply, err := h.registry.CreateLink(r.Context(), &req, clientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusCreated, reply)
}

func (h *handlers) listLinks(w nethttp.ResponseWriter, r *nethttp.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	var owner *string
	if token := q.Get("owner_token"); token != "" {
		owner = &token
	}

	reply, err := h.registry.ListLinks(r.Context(), owner, page, pageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) link(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(nethttp.StatusMethodNotAllowed)
		return
	}

	reply, err := h.registry.GetLink(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) renameLink(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPatch && r.Method != nethttp.MethodPut {
		w.Header().Set("Allow", "PATCH, PUT")
		w.WriteHeader(nethttp.StatusMethodNotAllowed)
		return
	}

	var req service.RenameLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeProblem(w, problemdetails.New(400, problemdetails.TypeValidationError, "Malformed Request", "request body is not valid JSON"))
		return
	}

	reply, err := h.registry.RenameLink(r.Context(), mux.Vars(r)["slug"], &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) linkStats(w nethttp.ResponseWriter, r *nethttp.Request) {
	reply, err := h.registry.Stats(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) checkAvailability(w nethttp.ResponseWriter, r *nethttp.Request) {
	reply, err := h.registry.CheckAvailability(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) suggestSlug(w nethttp.ResponseWriter, r *nethttp.Request) {
	reply, err := h.registry.SuggestSlug(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) ownerCount(w nethttp.ResponseWriter, r *nethttp.Request) {
	reply, err := h.registry.OwnerCount(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, nethttp.StatusOK, reply)
}

func (h *handlers) redirect(w nethttp.ResponseWriter, r *nethttp.Request) {
	visit := biz.Visit{
		UserAgent: r.UserAgent(),
		Locale:    r.Header.Get("Accept-Language"),
		RemoteIP:  clientIP(r),
		Referrer:  r.Referer(),
	}

	destination, err := h.registry.Resolve(r.Context(), mux.Vars(r)["slug"], visit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	nethttp.Redirect(w, r, destination, nethttp.StatusFound)
}

// writeError maps domain errors onto problem documents.
func (h *handlers) writeError(w nethttp.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSlug),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidDestination),
		errors.Is(err, domain.ErrInvalidToken):
		h.writeProblem(w, problemdetails.New(400, problemdetails.TypeValidationError, "Invalid Input", err.Error()))
	case errors.Is(err, domain.ErrSlugTaken):
		h.writeProblem(w, problemdetails.New(409, problemdetails.TypeSlugTaken, "Slug Taken", "this slug is already claimed, choose another"))
	case errors.Is(err, domain.ErrNotOwner):
		h.writeProblem(w, problemdetails.New(403, problemdetails.TypeNotOwner, "Not Owner", "only the link's creator can modify it"))
	case errors.Is(err, domain.ErrLinkNotFound):
		h.writeProblem(w, problemdetails.New(404, problemdetails.TypeNotFound, "Not Found", "no link exists for this slug"))
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.Errorf("store unavailable: %v", err)
		h.writeProblem(w, problemdetails.New(503, problemdetails.TypeStoreUnavailable, "Store Unavailable", "the link store is temporarily unavailable"))
	default:
		h.log.Errorf("unhandled error: %v", err)
		h.writeProblem(w, problemdetails.New(500, problemdetails.TypeInternalError, "Internal Error", "an unexpected error occurred"))
	}
}

func (h *handlers) writeProblem(w nethttp.ResponseWriter, p *problemdetails.ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func (h *handlers) writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP extracts the originating address, honoring a forwarding proxy.
func clientIP(r *nethttp.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
