package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

type nodeListResponse struct {
	Items []domain.NodeRef `json:"items"`
}

func (rt *Router) listProcessTypes(w http.ResponseWriter, r *http.Request) {
	refs, err := rt.services.Cascade.Roots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeListResponse{Items: refs})
}

func (rt *Router) listStandaloneProcesses(w http.ResponseWriter, r *http.Request) {
	refs, err := rt.services.Cascade.Standalone(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeListResponse{Items: refs})
}

func (rt *Router) listChildren(w http.ResponseWriter, r *http.Request) {
	nodeType, id, err := nodePath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	refs, err := rt.services.Cascade.Children(r.Context(), nodeType, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeListResponse{Items: refs})
}

func (rt *Router) validateChain(w http.ResponseWriter, r *http.Request) {
	var selection domain.HierarchySelection
	if err := decodeJSONBody(w, r, &selection); err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.services.Cascade.ValidateChain(r.Context(), selection); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (rt *Router) setNodeActive(w http.ResponseWriter, r *http.Request) {
	nodeType, id, err := nodePath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Active == nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "set node active", fmt.Errorf("active is required")))
		return
	}
	if err := rt.services.Catalog.SetNodeActive(r.Context(), nodeType, id, *req.Active); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) hierarchyStats(w http.ResponseWriter, r *http.Request) {
	nodeType := domain.NodeProcessType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, ok := domain.ParseNodeType(raw)
		if !ok {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "hierarchy stats", fmt.Errorf("unknown node type %q", raw)))
			return
		}
		nodeType = parsed
	}
	counts, err := rt.services.Stats.HierarchyNodeCounts(r.Context(), nodeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": nodeType, "items": counts})
}

func nodePath(r *http.Request) (domain.NodeType, int64, error) {
	raw := r.PathValue("type")
	nodeType, ok := domain.ParseNodeType(raw)
	if !ok {
		return "", 0, domain.WrapError(domain.ErrInvalidInput, "parse path", fmt.Errorf("unknown node type %q", raw))
	}
	id, err := pathID(r, "id")
	if err != nil {
		return "", 0, err
	}
	return nodeType, id, nil
}

const maxBodyBytes = 1 << 20

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode body", err)
	}
	return nil
}
