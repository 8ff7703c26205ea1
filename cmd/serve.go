package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/keywords"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for enrichment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", env.handleListLeads)
			r.Route("/{leadID}", func(r chi.Router) {
				r.Get("/", env.handleGetLead)
				r.Delete("/", env.handleDeleteLead)
				r.Post("/fetch", env.handleRequestFetch)
				r.Post("/analyze", env.handleRequestAnalyze)
				r.Post("/suggestions", env.handleRequestSuggestions)
				r.Post("/rank-checks", env.handleRequestRankCheck)
				r.Post("/scrape-email", env.handleRequestEmailScrape)
				r.Get("/analysis", env.handleGetAnalysis)
				r.Get("/analysis/posts", env.handleGetAnalysisPosts)
				r.Get("/suggestions", env.handleGetSuggestions)
				r.Get("/keywords", env.handleGetKeywords)
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func (pe *pipelineEnv) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{
		City:         r.URL.Query().Get("city"),
		MissingEmail: r.URL.Query().Get("missing_email") == "true",
	}
	leads, err := pe.Store.ListLeads(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (pe *pipelineEnv) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := pe.Store.GetLead(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (pe *pipelineEnv) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := pe.Store.DeleteLead(r.Context(), chi.URLParam(r, "leadID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (pe *pipelineEnv) handleRequestFetch(w http.ResponseWriter, r *http.Request) {
	analysis, err := pe.Pipeline.RequestFetch(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"analysis_id": analysis.ID,
		"status":      string(analysis.Status),
	})
}

func (pe *pipelineEnv) handleRequestAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keywords []string `json:"keywords"`
	}
	if r.Body != nil {
		// An empty body means "no target keywords".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	analysis, err := pe.Pipeline.RequestAnalyze(r.Context(), chi.URLParam(r, "leadID"), req.Keywords)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"analysis_id": analysis.ID,
		"status":      string(analysis.Status),
	})
}

func (pe *pipelineEnv) handleRequestSuggestions(w http.ResponseWriter, r *http.Request) {
	batch, err := pe.Pipeline.RequestSuggestions(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"batch_id": batch.ID,
		"status":   string(batch.Status),
	})
}

func (pe *pipelineEnv) handleRequestRankCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phrases []string `json:"phrases"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := pe.Pipeline.RequestRankCheck(r.Context(), chi.URLParam(r, "leadID"), req.Phrases); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (pe *pipelineEnv) handleRequestEmailScrape(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")
	if _, err := pe.Store.GetLead(r.Context(), leadID); err != nil {
		writeError(w, err)
		return
	}
	pe.Runner.Submit("scrape-email:"+leadID, func(ctx context.Context) error {
		_, err := pe.Pipeline.ScrapeEmail(ctx, leadID)
		return err
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (pe *pipelineEnv) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := pe.Store.LatestAnalysis(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*model.Analysis
		PostsLabel string `json:"posts_label"`
	}{analysis, postsLabel(analysis)})
}

// handleGetAnalysisPosts serves just the posts view of the latest
// analysis, so a poller does not have to pull the full record.
func (pe *pipelineEnv) handleGetAnalysisPosts(w http.ResponseWriter, r *http.Request) {
	analysis, err := pe.Store.LatestAnalysis(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		PostsStatus model.PostsStatus `json:"posts_status"`
		Posts       model.PostsInfo   `json:"posts"`
		PostsLabel  string            `json:"posts_label"`
	}{analysis.PostsStatus, analysis.Posts, postsLabel(analysis)})
}

func (pe *pipelineEnv) handleGetSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batch, err := pe.Store.LatestSuggestionBatch(ctx, chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}

	// Reclassify a batch whose worker died so the consumer is not
	// stuck watching pending forever.
	maxAge := time.Duration(cfg.Suggest.PendingTimeoutMins) * time.Minute
	batch, err = keywords.ReclassifyStale(ctx, pe.Store, batch, maxAge)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (pe *pipelineEnv) handleGetKeywords(w http.ResponseWriter, r *http.Request) {
	kws, err := pe.Store.ListTrackedKeywords(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kws)
}

// postsLabel renders the posts summary for display. The plus form
// means the provider hit its fetch depth and the real count may be
// higher.
func postsLabel(a *model.Analysis) string {
	if !a.PostsVerified() {
		return "posty niezweryfikowane"
	}
	if !a.Posts.HasPosts {
		return "brak postów"
	}
	if a.Posts.CountPlus {
		return fmt.Sprintf("%d+ postów", a.Posts.Count)
	}
	return fmt.Sprintf("%d postów", a.Posts.Count)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
