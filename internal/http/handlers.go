package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"launchpage/app/internal/db"
	"launchpage/app/internal/errorpage"
	"launchpage/app/internal/http/templates"
	"launchpage/app/internal/kv"
	"launchpage/app/internal/publish"
	"launchpage/app/internal/shortlink"
)

const (
	htmlContentType  = "text/html; charset=utf-8"
	plainContentType = "text/plain; charset=utf-8"
	deployPath       = "/api/deploy"
	pageCacheControl = "public, max-age=3600"
)

type htmlResponse struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Location     string `header:"Location"`
	Body         []byte
}

type pageInput struct {
	Slug string `path:"slug"`
}

type shortInput struct {
	Code string `path:"code"`
}

type deployInput struct {
	Body struct {
		BusinessName string `json:"businessName,omitempty"`
		Headline     string `json:"headline,omitempty"`
		Contact      string `json:"contact,omitempty"`
		HTML         string `json:"html,omitempty"`
		ProjectID    string `json:"projectId,omitempty"`
		Template     string `json:"template,omitempty"`
		ColorTheme   string `json:"colorTheme,omitempty"`
	}
}

type deployEnvelope struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	ShortURL string `json:"shortUrl,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Slug     string `json:"slug,omitempty"`
	HTML     string `json:"html,omitempty"`
	Error    string `json:"error,omitempty"`
}

type deployResponse struct {
	Status int
	Body   deployEnvelope
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Storage  string `json:"storage"`
	}
}

func (s *Server) registerHomeRoute() {
	huma.Get(s.api, "/", s.homeHandler, htmlOperation("LaunchPage home", stdhttp.StatusInternalServerError))
}

func (s *Server) registerDeployRoute() {
	huma.Post(s.api, deployPath, s.deployHandler, func(op *huma.Operation) {
		op.Summary = "Publish a landing page"
		op.DefaultStatus = stdhttp.StatusCreated
	})
}

func (s *Server) registerPageRoute() {
	huma.Get(s.api, "/p/{slug}", s.pageHandler, htmlOperation(
		"Resolve a published page",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
		stdhttp.StatusServiceUnavailable,
	))
}

func (s *Server) registerShortRoute() {
	huma.Get(s.api, "/s/{code}", s.shortHandler, htmlOperation(
		"Redirect a short link",
		stdhttp.StatusFound,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) homeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	data := templates.HomePageData{
		Title:    errorpage.BrandMark,
		Subtitle: "Publish a landing page for your business in seconds and share it with a short link.",
		Domain:   s.publisher.Domain(),
	}

	body, err := renderComponent(ctx, templates.HomePage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering home page", nil)
		return s.errorPageResponse(kv.CodeNone, ""), nil
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) deployHandler(ctx context.Context, input *deployInput) (*deployResponse, error) {
	req := publish.Request{
		BusinessName: input.Body.BusinessName,
		Headline:     input.Body.Headline,
		Contact:      input.Body.Contact,
		HTML:         input.Body.HTML,
		ProjectID:    input.Body.ProjectID,
		Template:     input.Body.Template,
		ColorTheme:   input.Body.ColorTheme,
	}

	result, err := s.publisher.Publish(ctx, req)
	if err != nil {
		return s.deployErrorResponse(ctx, err), nil
	}

	resp := &deployResponse{Status: stdhttp.StatusCreated}
	resp.Body = deployEnvelope{
		Success:  true,
		URL:      result.URL,
		ShortURL: result.ShortURL,
		Domain:   s.publisher.Domain(),
		Slug:     result.Slug,
		HTML:     req.HTML,
	}

	return resp, nil
}

func (s *Server) deployErrorResponse(ctx context.Context, err error) *deployResponse {
	var validationErr *publish.ValidationError
	if eris.As(err, &validationErr) {
		return &deployResponse{
			Status: stdhttp.StatusBadRequest,
			Body:   deployEnvelope{Error: validationErr.Error()},
		}
	}

	var storageErr *publish.StorageError
	if eris.As(err, &storageErr) {
		s.recordError(ctx, err, "publishing landing page", logrus.Fields{"code": storageErr.Code.String()})
		return &deployResponse{
			Status: errorpage.StatusFor(storageErr.Code),
			Body:   deployEnvelope{Error: "We couldn't save your page. Please try again."},
		}
	}

	s.recordError(ctx, err, "publishing landing page", nil)
	return &deployResponse{
		Status: stdhttp.StatusInternalServerError,
		Body:   deployEnvelope{Error: "We couldn't process your request right now."},
	}
}

func (s *Server) pageHandler(ctx context.Context, input *pageInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)

	html, res := s.publisher.ResolvePage(ctx, slug)
	if !res.OK {
		if errorpage.StatusFor(res.Code) >= 500 {
			s.recordError(ctx, eris.New(res.Message), "resolving landing page", logrus.Fields{"slug": slug, "code": res.Code.String()})
		}
		return s.errorPageResponse(res.Code, slug), nil
	}

	resp := newHTMLResponse(stdhttp.StatusOK, []byte(html))
	resp.CacheControl = pageCacheControl
	return resp, nil
}

func (s *Server) shortHandler(ctx context.Context, input *shortInput) (*htmlResponse, error) {
	code := strings.TrimSpace(input.Code)

	// A broken short link should still land the visitor somewhere useful.
	if !s.gate.Available() {
		resp := newHTMLResponse(stdhttp.StatusFound, nil)
		resp.Location = "/"
		return resp, nil
	}

	slug := shortlink.Resolve(ctx, s.gate, code)
	if slug == "" {
		resp := newHTMLResponse(stdhttp.StatusNotFound, []byte("short link not found"))
		resp.ContentType = plainContentType
		return resp, nil
	}

	resp := newHTMLResponse(stdhttp.StatusFound, nil)
	resp.Location = "/p/" + slug
	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Storage = "ok"

	if s.db != nil {
		sqlDB, err := db.SQLDB(s.db)
		if err != nil {
			s.recordError(ctx, err, "obtaining sql db", nil)
			resp.Body.Status = "degraded"
			resp.Body.Database = "error"
			resp.Status = stdhttp.StatusServiceUnavailable
		} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
			s.recordError(ctx, pingErr, "pinging database", nil)
			resp.Body.Status = "degraded"
			resp.Body.Database = "error"
			resp.Status = stdhttp.StatusServiceUnavailable
		}
	}

	if !s.gate.Available() {
		resp.Body.Status = "degraded"
		resp.Body.Storage = "unconfigured"
		if resp.Status == 0 {
			resp.Status = stdhttp.StatusServiceUnavailable
		}
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func (s *Server) errorPageResponse(code kv.ErrorCode, slug string) *htmlResponse {
	body, status := errorpage.Render(code, slug)
	return newHTMLResponse(status, []byte(body))
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
