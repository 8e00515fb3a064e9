package httpadapter

import (
	"net/http"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

func (rt *Router) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.deps.Loads.Status())
}

// reload uses the bearer credential of the request when there is one. The
// load runs on a detached context so that a client disconnect does not abort
// it half way.
func (rt *Router) reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := rt.loadContext(r.Context())
	defer cancel()
	state, err := rt.deps.Loads.Reload(ctx, bearerCredential(r.Header.Get("Authorization")))
	if err != nil {
		rt.writeDomainError(w, r, "reload", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) setCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeDomainError(w, r, "set credential", err)
		return
	}
	reloaded, err := rt.deps.Credentials.Set(r.Context(), req.Credential)
	if err != nil {
		rt.writeDomainError(w, r, "set credential", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stored": true, "reloaded": reloaded})
}

func (rt *Router) clearCredential(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.Credentials.Clear(r.Context()); err != nil {
		rt.writeDomainError(w, r, "clear credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": rt.deps.Catalog.Models(r.URL.Query().Get("q"))})
}

func (rt *Router) getModel(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.deps.Catalog.Document(r.PathValue("name"))
	if err != nil {
		rt.writeDomainError(w, r, "get model", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) getModelTree(w http.ResponseWriter, r *http.Request) {
	tree, err := rt.deps.Catalog.Tree(r.PathValue("name"))
	if err != nil {
		rt.writeDomainError(w, r, "get model tree", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (rt *Router) getWeaknesses(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseFloatQuery(r, "threshold", 0)
	if err != nil {
		rt.writeDomainError(w, r, "weakness report", err)
		return
	}
	report, err := rt.deps.Rankings.Weaknesses(r.PathValue("name"), threshold)
	if err != nil {
		rt.writeDomainError(w, r, "weakness report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) getTaxonomy(w http.ResponseWriter, r *http.Request) {
	root, err := rt.deps.Rankings.Taxonomy(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "get taxonomy", err)
		return
	}
	paths, err := rt.deps.Rankings.Categories(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "get taxonomy", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"root": root, "paths": paths})
}

// getRankings takes one column per path parameter. A bare "path=" asks for
// the overall ranking.
func (rt *Router) getRankings(w http.ResponseWriter, r *http.Request) {
	paths := r.URL.Query()["path"]
	columns := rt.deps.Rankings.Rankings(r.Context(), paths)
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordRankingColumns(rt.deps.Service, len(columns))
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

func (rt *Router) getLeaderboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.deps.Rankings.Leaderboard())
}

func (rt *Router) exportLeaderboard(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Exporter == nil {
		writeError(w, http.StatusNotFound, "export is not configured")
		return
	}
	board := rt.deps.Rankings.Leaderboard()
	w.Header().Set("Content-Type", rt.deps.Exporter.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	if err := rt.deps.Exporter.Export(w, board); err != nil {
		rt.logger.Error("leaderboard_export_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := rt.deps.Sessions.Create(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	rt.writeSnapshot(w, r, r.PathValue("id"))
}

func (rt *Router) toggleModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := rt.deps.Sessions.ToggleModel(r.Context(), id, r.PathValue("name")); err != nil {
		rt.writeDomainError(w, r, "toggle model", err)
		return
	}
	rt.writeSnapshot(w, r, id)
}

func (rt *Router) removeModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := rt.deps.Sessions.RemoveModel(r.Context(), id, r.PathValue("name")); err != nil {
		rt.writeDomainError(w, r, "remove model", err)
		return
	}
	rt.writeSnapshot(w, r, id)
}

func (rt *Router) toggleNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, err := parseBoolQuery(r.URL.Query().Get("expanded"))
	if err != nil {
		rt.writeDomainError(w, r, "toggle node", err)
		return
	}
	if err := rt.deps.Sessions.ToggleNode(r.Context(), id, r.PathValue("name"), current); err != nil {
		rt.writeDomainError(w, r, "toggle node", err)
		return
	}
	rt.writeSnapshot(w, r, id)
}

func (rt *Router) toggleCategory(w http.ResponseWriter, r *http.Request) {
	var req toggleCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeDomainError(w, r, "toggle category", err)
		return
	}
	id := r.PathValue("id")
	if err := rt.deps.Sessions.ToggleCategory(r.Context(), id, *req.Path); err != nil {
		rt.writeDomainError(w, r, "toggle category", err)
		return
	}
	rt.writeSnapshot(w, r, id)
}

func (rt *Router) scroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeDomainError(w, r, "scroll", err)
		return
	}
	offsets, synced, err := rt.deps.Sessions.Scroll(r.Context(), r.PathValue("id"), req.Panel, *req.Offset)
	if err != nil {
		rt.writeDomainError(w, r, "scroll", err)
		return
	}
	if offsets == nil {
		offsets = []domain.PanelOffset{}
	}
	writeJSON(w, http.StatusOK, scrollResponse{Synced: synced, Offsets: offsets})
}

func (rt *Router) writeSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	snapshot, err := rt.deps.Sessions.Snapshot(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		rt.writeDomainError(w, r, "session snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
