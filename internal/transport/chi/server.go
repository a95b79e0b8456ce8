// Package chi is the HTTP surface of bookrec: the UI page, the gallery fragment endpoint,
// a JSON API, static assets, health and metrics.
package chi

import (
	"embed"
	"html"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/gallery"
	logpkg "github.com/kailas-cloud/bookrec/internal/logger"
	"github.com/kailas-cloud/bookrec/internal/metrics"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/bookrec/internal/usecase/recommend"
)

// PageTitle is the UI heading.
const PageTitle = "Semantic book recommender"

//go:embed assets
var assetsFS embed.FS

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Server serves the recommender UI and API.
type Server struct {
	recommend *recommenduc.Service
	health    *healthuc.Service
	logger    *zap.Logger
	apiKeys   []string
}

// NewServer creates an HTTP server. apiKeys guard /api/*; empty disables auth.
func NewServer(
	recommend *recommenduc.Service,
	health *healthuc.Service,
	apiKeys []string,
	logger *zap.Logger,
) *Server {
	return &Server{
		recommend: recommend,
		health:    health,
		logger:    logger,
		apiKeys:   apiKeys,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/", s.Index)
	r.Post("/recommend", s.Recommend)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic("assets: " + err.Error())
	}
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assets))))

	r.Route("/api", func(api chi.Router) {
		api.Use(BearerAuthMiddleware(s.apiKeys))
		api.Get("/recommendations", s.ListRecommendations)
	})

	return r
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTmpl.Execute(w, struct {
		Title      string
		Styles     template.HTML
		Script     template.HTML
		Categories []string
		Tones      []domain.Tone
	}{
		Title:      PageTitle,
		Styles:     template.HTML(gallery.Styles), //nolint:gosec // constant markup
		Script:     template.HTML(gallery.Script), //nolint:gosec // constant markup
		Categories: s.recommend.Categories(),
		Tones:      domain.Tones(),
	})
	if err != nil {
		logpkg.FromContext(r.Context()).Error("render index", zap.Error(err))
	}
}

// Recommend handles POST /recommend: form fields query, category, tone; responds with the gallery fragment.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeHTML(w, http.StatusBadRequest, errorFragment("Invalid form submission."))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	books, err := s.recommend.Recommend(ctx, recommenduc.Request{
		Query:    r.PostForm.Get("query"),
		Category: r.PostForm.Get("category"),
		Tone:     r.PostForm.Get("tone"),
	})
	setEmbeddingHeaders(w, usage)
	if err != nil {
		st := s.domainError(r, err)
		writeHTML(w, st.status, errorFragment(st.message))
		return
	}

	writeHTML(w, http.StatusOK, gallery.Render(books))
}

// RecommendationsParams are the query parameters of GET /api/recommendations.
type RecommendationsParams struct {
	Q        string  `form:"q" json:"q"`
	Category *string `form:"category,omitempty" json:"category,omitempty"`
	Tone     *string `form:"tone,omitempty" json:"tone,omitempty"`
	K        *int    `form:"k,omitempty" json:"k,omitempty"`
}

// ListRecommendations handles GET /api/recommendations.
func (s *Server) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	params, err := bindRecommendationsParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	req := recommenduc.Request{Query: params.Q}
	if params.Category != nil {
		req.Category = *params.Category
	}
	if params.Tone != nil {
		req.Tone = *params.Tone
	}
	if params.K != nil {
		if *params.K <= 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "k must be positive")
			return
		}
		req.FinalTopK = *params.K
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	books, err := s.recommend.Recommend(ctx, req)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		st := s.domainError(r, err)
		msg := "internal error"
		if st.code != ErrorCodeInternal {
			msg = err.Error()
		}
		writeError(w, st.status, st.code, msg)
		return
	}

	items := make([]BookResponse, len(books))
	for i := range books {
		items[i] = bookToResponse(&books[i])
	}
	writeJSON(w, http.StatusOK, RecommendationsResponse{Count: len(items), Books: items})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindRecommendationsParams(r *http.Request) (RecommendationsParams, error) {
	var p RecommendationsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", q, &p.Q); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", q, &p.Category); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "tone", q, &p.Tone); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", q, &p.K); err != nil {
		return p, err
	}
	return p, nil
}

// domainError logs err at the level its class deserves and returns how to report it.
func (s *Server) domainError(r *http.Request, err error) errorStatus {
	log := logpkg.FromContext(r.Context())
	st, sentinel := classify(err)
	if sentinel == nil {
		log.Error("internal error", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}
	return st
}

func errorFragment(msg string) string {
	return `<p class="error">` + html.EscapeString(msg) + `</p>`
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

// BookResponse is one recommended book in the JSON API.
type BookResponse struct {
	ISBN13         string           `json:"isbn13"`
	Title          string           `json:"title"`
	Authors        []string         `json:"authors"`
	AuthorsDisplay string           `json:"authors_display"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	Thumbnail      string           `json:"thumbnail"`
	Emotions       EmotionsResponse `json:"emotions"`
}

// EmotionsResponse carries the per-book emotion scores. A missing score is null.
type EmotionsResponse struct {
	Joy      *float64 `json:"joy"`
	Surprise *float64 `json:"surprise"`
	Anger    *float64 `json:"anger"`
	Fear     *float64 `json:"fear"`
	Sadness  *float64 `json:"sadness"`
}

func emotionsToResponse(e domain.Emotions) EmotionsResponse {
	score := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return EmotionsResponse{
		Joy:      score(e.Joy),
		Surprise: score(e.Surprise),
		Anger:    score(e.Anger),
		Fear:     score(e.Fear),
		Sadness:  score(e.Sadness),
	}
}

// RecommendationsResponse is the body of GET /api/recommendations.
type RecommendationsResponse struct {
	Count int            `json:"count"`
	Books []BookResponse `json:"books"`
}

func bookToResponse(b *domain.Book) BookResponse {
	authors := []string{}
	for _, a := range strings.Split(b.Authors, ";") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return BookResponse{
		ISBN13:         strconv.FormatInt(b.ISBN13, 10),
		Title:          b.Title,
		Authors:        authors,
		AuthorsDisplay: gallery.FormatAuthors(b.Authors),
		Description:    b.Description,
		Category:       b.Category,
		Thumbnail:      b.LargeThumbnail,
		Emotions:       emotionsToResponse(b.Emotions),
	}
}
