package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/interfaces"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

type handlers struct {
	console interfaces.Console
}

func (h *handlers) setCredentials(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(r.Context(), w, goerr.Wrap(err, "invalid request body", goerr.T(model.ErrTagValidation)))
		return
	}
	if body.APIKey == "" {
		writeError(r.Context(), w, goerr.New("api_key is required", goerr.T(model.ErrTagValidation)))
		return
	}
	h.console.SetCredentials(r.Context(), body.APIKey)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) selfTest(w http.ResponseWriter, r *http.Request) {
	report := h.console.SelfTest(r.Context())
	writeJSON(r.Context(), w, http.StatusOK, report)
}

func (h *handlers) resolveTeam(w http.ResponseWriter, r *http.Request) {
	teamID, resolved := h.console.ResolveTeamID(r.Context())
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"team_id":  teamID,
		"resolved": resolved,
	})
}

func (h *handlers) listMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("page") != "" || q.Get("size") != "" {
		page := intQuery(q.Get("page"), 1)
		size := intQuery(q.Get("size"), 100)
		members, total, err := h.console.ListMembers(r.Context(), page, size)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"list":  members,
			"total": total,
		})
		return
	}

	members, err := h.console.GetAllMembers(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"list":  members,
		"total": len(members),
	})
}

func (h *handlers) getMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.console.GetMember(r.Context(), memberIDParam(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, member)
}

func (h *handlers) createMember(w http.ResponseWriter, r *http.Request) {
	var draft model.MemberDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(r.Context(), w, goerr.Wrap(err, "invalid request body", goerr.T(model.ErrTagValidation)))
		return
	}
	member, err := h.console.CreateMember(r.Context(), &draft)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, member)
}

func (h *handlers) updateMember(w http.ResponseWriter, r *http.Request) {
	var input model.MemberUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(r.Context(), w, goerr.Wrap(err, "invalid request body", goerr.T(model.ErrTagValidation)))
		return
	}
	member, err := h.console.UpdateMember(r.Context(), memberIDParam(r), &input)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, member)
}

func (h *handlers) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.console.DeleteMember(r.Context(), memberIDParam(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.console.ListGroups(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"list": groups})
}

func (h *handlers) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.console.ListRoles(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"list": roles})
}

func (h *handlers) assignGroups(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GroupIDs []types.GroupID `json:"group_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(r.Context(), w, goerr.Wrap(err, "invalid request body", goerr.T(model.ErrTagValidation)))
		return
	}
	if len(body.GroupIDs) == 0 {
		writeError(r.Context(), w, goerr.New("group_ids is required", goerr.T(model.ErrTagValidation)))
		return
	}

	result, err := h.console.AssignGroups(r.Context(), memberIDParam(r), body.GroupIDs)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

func memberIDParam(r *http.Request) types.MemberID {
	return types.MemberID(chi.URLParam(r, "memberID"))
}

func intQuery(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
