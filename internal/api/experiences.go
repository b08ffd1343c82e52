package api

import (
	"net/http"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/models/dtos"

	"github.com/go-chi/chi/v5"
)

// CreateExperienceHandler handles POST /api/v1/servers/{serverID}/experiences
func CreateExperienceHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.ExperienceRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		exp, err := engine.Create(r.Context(), actor, chi.URLParam(r, "serverID"), req.ToPayload())
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Experience submitted for approval", dtos.NewExperienceView(exp), http.StatusCreated)
	}
}

// ListTimelineHandler handles GET /api/v1/experiences
func ListTimelineHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		exps, err := engine.ListTimeline(r.Context(), actor.UserID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Timeline fetched", dtos.NewExperienceViews(exps))
	}
}

// ListPendingHandler handles GET /api/v1/experiences/pending
func ListPendingHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		exps, err := engine.ListPending(r.Context(), actor.UserID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Pending requests fetched", dtos.NewExperienceViews(exps))
	}
}

// ApproveExperienceHandler handles POST /api/v1/experiences/{id}/approve
func ApproveExperienceHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		exp, err := engine.Approve(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Experience approved", dtos.NewExperienceView(exp))
	}
}

// RejectExperienceHandler handles POST /api/v1/experiences/{id}/reject
func RejectExperienceHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		if err := engine.Reject(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Experience rejected", nil)
	}
}

// EditExperienceHandler handles PUT /api/v1/experiences/{id}
func EditExperienceHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.ExperienceRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		exp, err := engine.Edit(r.Context(), actor, chi.URLParam(r, "id"), req.ToPayload())
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Experience updated", dtos.NewExperienceView(exp))
	}
}

// SetEndDateHandler handles PUT /api/v1/experiences/{id}/end
func SetEndDateHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.EndDateRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		exp, err := engine.SetEndDate(r.Context(), actor, chi.URLParam(r, "id"), req.EndMonth, req.EndYear)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "End date updated", dtos.NewExperienceView(exp))
	}
}

// DeleteApprovedHandler handles DELETE /api/v1/experiences/{id}
func DeleteApprovedHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		if err := engine.DeleteApproved(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Experience deleted", nil)
	}
}

// DeletePendingHandler handles DELETE /api/v1/experiences/{id}/pending
func DeletePendingHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		if err := engine.DeletePending(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Request withdrawn", nil)
	}
}

// PinExperienceHandler handles POST /api/v1/experiences/{id}/pin and /unpin
func PinExperienceHandler(engine ExperienceEngine, pinned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		call, message := engine.Unpin, "Experience unpinned"
		if pinned {
			call, message = engine.Pin, "Experience pinned"
		}

		exp, err := call(r.Context(), actor, id)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, message, dtos.NewExperienceView(exp))
	}
}

// ExperienceHistoryHandler handles GET /api/v1/experiences/{id}/history
func ExperienceHistoryHandler(engine ExperienceEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		entries, err := engine.History(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		views := make([]dtos.HistoryEntryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, dtos.HistoryEntryView{
				Action:    e.Action,
				UserID:    e.UserID,
				Details:   e.Details,
				Timestamp: e.CreatedAt,
			})
		}
		common.RespondSuccess(w, initTime, "History fetched", views)
	}
}
