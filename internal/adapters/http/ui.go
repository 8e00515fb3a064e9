package httpadapter

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var viewerTemplate = template.Must(template.New("viewer.html").Funcs(template.FuncMap{
	"nodeContext": func(session string, node domain.VisualNode) treeNodeView {
		return treeNodeView{Session: session, Node: node}
	},
}).ParseFS(templateFS, "templates/viewer.html"))

type viewerPage struct {
	Session        domain.SessionSnapshot
	Categories     []categoryOption
	Error          string
	APIKeyRequired bool
}

type treeNodeView struct {
	Session string
	Node    domain.VisualNode
}

type categoryOption struct {
	domain.CategoryPathEntry
	Selected bool
}

func (rt *Router) uiIndex(w http.ResponseWriter, r *http.Request) {
	snapshot, err := rt.deps.Sessions.Create(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "create session", err)
		return
	}
	http.Redirect(w, r, "/ui/"+url.PathEscape(snapshot.ID), http.StatusSeeOther)
}

func (rt *Router) uiView(w http.ResponseWriter, r *http.Request) {
	snapshot, err := rt.deps.Sessions.Snapshot(r.Context(), r.PathValue("id"), r.URL.Query().Get("q"))
	if domain.IsKind(err, domain.ErrSessionNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		rt.writeDomainError(w, r, "render viewer", err)
		return
	}

	page := viewerPage{
		Session:        snapshot,
		Error:          r.URL.Query().Get("error"),
		APIKeyRequired: rt.cfg.APIKey != "",
	}
	if entries, err := rt.deps.Rankings.Categories(r.Context()); err == nil {
		selected := make(map[string]bool, len(snapshot.CategoryPaths))
		for _, path := range snapshot.CategoryPaths {
			selected[path] = true
		}
		for _, entry := range entries {
			page.Categories = append(page.Categories, categoryOption{CategoryPathEntry: entry, Selected: selected[entry.Path]})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewerTemplate.Execute(w, page); err != nil {
		rt.logger.Error("viewer_render_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

// uiAction applies one form action to the session and redirects back to the
// viewer, keeping the picker filter.
func (rt *Router) uiAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	name := r.PostForm.Get("name")

	var err error
	switch r.PostForm.Get("action") {
	case "toggle_model":
		err = rt.deps.Sessions.ToggleModel(r.Context(), id, name)
	case "remove_model":
		err = rt.deps.Sessions.RemoveModel(r.Context(), id, name)
	case "toggle_node":
		var current *bool
		if current, err = parseBoolQuery(r.PostForm.Get("expanded")); err == nil {
			err = rt.deps.Sessions.ToggleNode(r.Context(), id, name, current)
		}
	case "toggle_category":
		err = rt.deps.Sessions.ToggleCategory(r.Context(), id, r.PostForm.Get("path"))
	case "reload":
		if !rt.authorized(r, r.PostForm.Get("api_key")) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err = rt.deps.Sessions.Snapshot(r.Context(), id, ""); err == nil {
			ctx, cancel := rt.loadContext(r.Context())
			_, err = rt.deps.Loads.Reload(ctx, "")
			cancel()
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	target := url.URL{Path: "/ui/" + id}
	query := url.Values{}
	if q := r.PostForm.Get("q"); q != "" {
		query.Set("q", q)
	}
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		query.Set("error", err.Error())
	}
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}
