package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jobsearch/app/enums"
	"github.com/umputun/jobsearch/app/export"
	"github.com/umputun/jobsearch/app/store"
)

// route maps method and path to a handler. Prefix routes match any path starting with path.
type route struct {
	method  string
	path    string
	prefix  bool
	handler func(ctx context.Context, req request) response
}

func (s *Server) routes() []route {
	return []route{
		{method: http.MethodGet, path: "/", handler: s.handleIndex},
		{method: http.MethodGet, path: "/styles.css", handler: s.handleStatic("styles.css", contentTypeCSS)},
		{method: http.MethodGet, path: "/create", handler: s.handleStatic("create.html", contentTypeHTML)},
		{method: http.MethodPost, path: "/create_job", handler: s.handleCreateJob},
		{method: http.MethodPost, path: "/delete/", prefix: true, handler: s.handleDelete},
		{method: http.MethodPost, path: "/export", handler: s.handleExport},
	}
}

// dispatch finds the first matching route, unmatched requests get 404
func (s *Server) dispatch(ctx context.Context, req request) response {
	path := req.path()
	for _, rt := range s.routeTable {
		if rt.method != req.method {
			continue
		}
		if (rt.prefix && strings.HasPrefix(path, rt.path)) || (!rt.prefix && path == rt.path) {
			return rt.handler(ctx, req)
		}
	}
	return textResponse(http.StatusNotFound, "404 Not Found")
}

// GET /
func (s *Server) handleIndex(ctx context.Context, _ request) response {
	jobs, err := s.store.List(ctx)
	if err != nil {
		log.Printf("[WARN] failed to list jobs: %v", err)
		return textResponse(http.StatusInternalServerError, "failed to load jobs")
	}
	body, err := s.renderIndex(jobs)
	if err != nil {
		log.Printf("[WARN] failed to render jobs: %v", err)
		return textResponse(http.StatusInternalServerError, "template error")
	}
	return response{status: http.StatusOK, contentType: contentTypeHTML, body: body}
}

// GET /styles.css and GET /create
func (s *Server) handleStatic(name, contentType string) func(context.Context, request) response {
	return func(context.Context, request) response {
		body, err := staticFile(name)
		if err != nil {
			log.Printf("[ERROR] %v", err)
			return textResponse(http.StatusInternalServerError, "static file error")
		}
		return response{status: http.StatusOK, contentType: contentType, body: body}
	}
}

// POST /create_job with {"title": "...", "description": "..."}, dated today
func (s *Server) handleCreateJob(ctx context.Context, req request) response {
	fields, err := parseJSONFields(req.body, "title", "description")
	if err != nil {
		log.Printf("[WARN] bad create_job request: %v", err)
		return textResponse(http.StatusBadRequest, err.Error())
	}

	job, err := s.store.Add(ctx, fields["title"], fields["description"], store.Today())
	if err != nil {
		if errors.Is(err, store.ErrInvalidJob) {
			return textResponse(http.StatusBadRequest, err.Error())
		}
		log.Printf("[WARN] failed to create job: %v", err)
		return textResponse(http.StatusInternalServerError, "failed to create job")
	}
	log.Printf("[INFO] job #%d %q created", job.ID, job.Title)
	return textResponse(http.StatusOK, "Job created successfully")
}

// POST /delete/{id}, redirects to the list
func (s *Server) handleDelete(ctx context.Context, req request) response {
	idStr := strings.TrimPrefix(req.path(), "/delete/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Printf("[WARN] bad delete request, id %q: %v", idStr, err)
		return textResponse(http.StatusBadRequest, fmt.Sprintf("invalid job id %q", idStr))
	}

	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		log.Printf("[WARN] failed to delete job #%d: %v", id, err)
		return textResponse(http.StatusInternalServerError, "failed to delete job")
	}
	if removed {
		log.Printf("[INFO] job #%d deleted", id)
	}
	return redirectResponse("/")
}

// POST /export with {"format": "json|csv"}
func (s *Server) handleExport(ctx context.Context, req request) response {
	fields, err := parseJSONFields(req.body, "format")
	if err != nil {
		log.Printf("[WARN] bad export request: %v", err)
		return textResponse(http.StatusBadRequest, err.Error())
	}
	format, err := enums.ParseFormat(fields["format"])
	if err != nil {
		return textResponse(http.StatusBadRequest, "Invalid format")
	}

	jobs, err := s.store.List(ctx)
	if err != nil {
		log.Printf("[WARN] failed to list jobs for export: %v", err)
		return textResponse(http.StatusInternalServerError, "failed to load jobs")
	}
	body, err := export.Bytes(format, jobs)
	if err != nil {
		log.Printf("[WARN] failed to export jobs: %v", err)
		return textResponse(http.StatusInternalServerError, "failed to export jobs")
	}
	return response{status: http.StatusOK, contentType: export.ContentType(format), body: body}
}

// parseJSONFields decodes a flat object of strings and checks required fields are set
func parseJSONFields(body []byte, required ...string) (map[string]string, error) {
	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}
	fields := map[string]string{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("invalid json body: %w", err)
	}
	for _, name := range required {
		if strings.TrimSpace(fields[name]) == "" {
			return nil, fmt.Errorf("missing field %q", name)
		}
	}
	return fields, nil
}
