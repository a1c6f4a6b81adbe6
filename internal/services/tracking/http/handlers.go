// Package http provides http transport for issue tracking
package http

import (
	"net/http"

	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/services/tracking/domain"
	svc "issuebridge/internal/services/tracking/service"
)

// Register mounts the tracking routes; guard protects the destructive ones
func Register(r httpkit.Router, s *svc.Service, guard func(http.Handler) http.Handler) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.ReferenceInput](r, "/references", h.reference)
	httpkit.PostJSON[domain.ReferenceInput](r, "/references/issues", h.issues)
	httpkit.Guarded(r, guard, func(g httpkit.Router) {
		httpkit.Delete(g, "/repositories/{id}", h.repositoryDeleted)
	})
}

type handlers struct{ svc *svc.Service }

// swagger:route POST /issue-tracker/references Tracking trackingReference
// @Summary Process a referencing object on every tracker of its repository
// @Tags Tracking
// @Accept json
// @Produce json
// @Param payload body domain.ReferenceInput true "Referencing object"
// @Success 200 {object} domain.ReferenceResult "ok"
// @Failure 404 {object} httpkit.Envelope "repository not found"
// @Router /issue-tracker/references [post]
func (h *handlers) reference(r *http.Request, in domain.ReferenceInput) (any, error) {
	return h.svc.Reference(r.Context(), in)
}

// swagger:route POST /issue-tracker/references/issues Tracking trackingIssues
// @Summary Issues referenced by an object, without side effects
// @Tags Tracking
// @Accept json
// @Produce json
// @Param payload body domain.ReferenceInput true "Referencing object"
// @Success 200 {object} domain.ReferenceResult "ok"
// @Router /issue-tracker/references/issues [post]
func (h *handlers) issues(r *http.Request, in domain.ReferenceInput) (any, error) {
	return h.svc.Issues(r.Context(), in)
}

// swagger:route DELETE /issue-tracker/repositories/{id} Tracking trackingRepositoryDeleted
// @Summary Purge the tracker state of a deleted repository
// @Tags Tracking
// @Security BearerAuth
// @Param id path string true "Repository id"
// @Success 204 "purged"
// @Failure 401 {object} httpkit.Envelope "unauthorized"
// @Router /issue-tracker/repositories/{id} [delete]
func (h *handlers) repositoryDeleted(r *http.Request) (any, error) {
	if err := h.svc.RepositoryDeleted(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
