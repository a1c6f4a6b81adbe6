// Package http provides http transport for the resubmit queue
package http

import (
	"net/http"

	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/services/resubmit/domain"
	svc "issuebridge/internal/services/resubmit/service"
)

// Register mounts the resubmit routes; every route is administrative and sits behind guard
func Register(r httpkit.Router, s *svc.Service, guard func(http.Handler) http.Handler) {
	h := &handlers{svc: s}
	httpkit.Guarded(r, guard, func(g httpkit.Router) {
		httpkit.Get(g, "/", h.list)
		httpkit.Get(g, "/config", h.config)
		httpkit.PutJSON[domain.Configuration](g, "/config", h.setConfig)
		httpkit.Get(g, "/{issueTracker}", h.comments)
		httpkit.Post(g, "/{issueTracker}/resubmit", h.resubmit)
		httpkit.Post(g, "/{issueTracker}/clear", h.clear)
	})
}

type handlers struct{ svc *svc.Service }

// swagger:route GET /issue-tracker/resubmits Resubmit resubmitList
// @Summary Resubmit queues per tracker
// @Tags Resubmit
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.QueueStatus "ok"
// @Failure 401 {object} httpkit.Envelope "unauthorized"
// @Router /issue-tracker/resubmits [get]
func (h *handlers) list(r *http.Request) (any, error) {
	return h.svc.Status(r.Context())
}

// swagger:route GET /issue-tracker/resubmits/{issueTracker} Resubmit resubmitComments
// @Summary Queued comments of a tracker, oldest first
// @Tags Resubmit
// @Produce json
// @Security BearerAuth
// @Param issueTracker path string true "Tracker name"
// @Success 200 {array} domain.QueuedComment "ok"
// @Router /issue-tracker/resubmits/{issueTracker} [get]
func (h *handlers) comments(r *http.Request) (any, error) {
	return h.svc.Comments(r.Context(), httpkit.Param(r, "issueTracker"))
}

// swagger:route POST /issue-tracker/resubmits/{issueTracker}/resubmit Resubmit resubmitTrigger
// @Summary Start a resubmit batch in the background
// @Tags Resubmit
// @Produce json
// @Security BearerAuth
// @Param issueTracker path string true "Tracker name"
// @Success 202 {object} domain.Accepted "accepted"
// @Failure 429 {object} httpkit.Envelope "backlog full"
// @Router /issue-tracker/resubmits/{issueTracker}/resubmit [post]
func (h *handlers) resubmit(r *http.Request) (any, error) {
	acc, err := h.svc.ResubmitAsync(httpkit.Param(r, "issueTracker"))
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(acc), nil
}

// swagger:route POST /issue-tracker/resubmits/{issueTracker}/clear Resubmit resubmitClear
// @Summary Drop every queued comment of a tracker
// @Tags Resubmit
// @Security BearerAuth
// @Param issueTracker path string true "Tracker name"
// @Success 202 "cleared"
// @Router /issue-tracker/resubmits/{issueTracker}/clear [post]
func (h *handlers) clear(r *http.Request) (any, error) {
	if err := h.svc.Clear(r.Context(), httpkit.Param(r, "issueTracker")); err != nil {
		return nil, err
	}
	return httpkit.Accepted(nil), nil
}

// swagger:route GET /issue-tracker/resubmits/config Resubmit resubmitConfig
// @Summary Notification addresses
// @Tags Resubmit
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Configuration "ok"
// @Router /issue-tracker/resubmits/config [get]
func (h *handlers) config(r *http.Request) (any, error) {
	return h.svc.Config(r.Context())
}

// swagger:route PUT /issue-tracker/resubmits/config Resubmit resubmitSetConfig
// @Summary Replace the notification addresses
// @Tags Resubmit
// @Accept json
// @Security BearerAuth
// @Param payload body domain.Configuration true "Configuration"
// @Success 204 "saved"
// @Failure 400 {object} httpkit.Envelope "invalid address"
// @Router /issue-tracker/resubmits/config [put]
func (h *handlers) setConfig(r *http.Request, in domain.Configuration) (any, error) {
	if err := h.svc.SetConfig(r.Context(), in); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
