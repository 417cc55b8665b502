package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/pipeline"
	"github.com/PavanSai0211/Finance-Reporting-Project/report"
	"github.com/PavanSai0211/Finance-Reporting-Project/transform"
)

const martPreviewRows = 10

// Warehouse is the read side of the warehouse the dashboard queries.
type Warehouse interface {
	QueryTable(query string) (*frame.Table, error)
	QualifiedName(table string) string
}

// ReportRunner builds and sends the report of the last complete period.
type ReportRunner interface {
	Run(ctx context.Context, kind report.Kind) (*report.Report, error)
}

type Server struct {
	Warehouse Warehouse
	Reports   ReportRunner
	Logger    *slog.Logger
}

var errUnknownTable = errors.New("unknown table")

// Routes wires every dashboard endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", s.overview)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/charts/ohlc", s.ohlcChart)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/kpis/{table}", s.tableJSON(pipeline.KPITables, 0))
		r.Get("/aggregates/{table}", s.tableJSON(pipeline.AggregateTables, 0))
		r.Get("/marts/{table}", s.tableJSON(pipeline.MartTables, martPreviewRows))
		r.Post("/reports/{kind}", s.sendReport)
	})
	r.Get("/kpis/{table}/chart", s.kpiChart)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info(fmt.Sprintf("Dashboard listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dashboard server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown failed: %w", err)
	}
	s.Logger.Info("Dashboard stopped")
	return nil
}

var overviewPage = template.Must(template.New("overview").Parse(`<!DOCTYPE html>
<html><head><title>Financial Data Analysis Dashboard</title></head>
<body>
<h1>Financial Data Analysis Dashboard</h1>
<p>Star schema built from historical prices, statements, dividends and company information.</p>
<h2>Visualizations</h2>
<ul><li><a href="/charts/ohlc">OHLC stock price movement</a></li></ul>
<h2>KPIs</h2>
<ul>{{range .KPIs}}<li><a href="/kpis/{{.}}">{{.}}</a> (<a href="/kpis/{{.}}/chart">chart</a>)</li>{{end}}</ul>
<h2>Aggregates</h2>
<ul>{{range .Aggregates}}<li><a href="/aggregates/{{.}}">{{.}}</a></li>{{end}}</ul>
<h2>Data Marts</h2>
<ul>{{range .Marts}}<li><a href="/marts/{{.}}">{{.}}</a></li>{{end}}</ul>
</body></html>
`))

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string][]string{
		"KPIs":       pipeline.KPITables,
		"Aggregates": pipeline.AggregateTables,
		"Marts":      pipeline.MartTables,
	}
	if err := overviewPage.Execute(w, data); err != nil {
		s.Logger.Error("Failed to render overview", "error", err)
	}
}

// tableJSON serves the rows of an allow-listed table; limit 0 means all rows.
func (s *Server) tableJSON(allowed []string, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "table")
		table, err := s.readTable(allowed, name, limit)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		render.JSON(w, r, map[string]any{
			"table":   name,
			"columns": table.Columns,
			"rows":    records(table),
		})
	}
}

func (s *Server) readTable(allowed []string, name string, limit int) (*frame.Table, error) {
	if !slices.Contains(allowed, name) {
		return nil, fmt.Errorf("%w %q", errUnknownTable, name)
	}
	query := "SELECT * FROM " + s.Warehouse.QualifiedName(name)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	table, err := s.Warehouse.QueryTable(query + ";")
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", name, err)
	}
	return table, nil
}

func (s *Server) sendReport(w http.ResponseWriter, r *http.Request) {
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	if s.Reports == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"error": "report delivery is not configured"})
		return
	}

	rep, err := s.Reports.Run(r.Context(), kind)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to send %s report", kind), "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, map[string]any{
		"status": "sent",
		"period": rep.Period.Label(),
		"file":   rep.Path,
		"rows":   rep.Rows,
	})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errUnknownTable) {
		status = http.StatusNotFound
	} else {
		s.Logger.Error("Dashboard query failed", "path", r.URL.Path, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

// records converts rows to JSON-friendly maps keyed by column.
func records(table *frame.Table) []map[string]any {
	out := make([]map[string]any, table.Len())
	for i, row := range table.Rows {
		rec := make(map[string]any, table.Width())
		for j, v := range row {
			switch v.Kind {
			case frame.Missing:
				rec[table.Columns[j]] = nil
			case frame.Number:
				rec[table.Columns[j]] = v.Num
			case frame.Bool:
				rec[table.Columns[j]] = v.Flag
			default:
				rec[table.Columns[j]] = v.String()
			}
		}
		out[i] = rec
	}
	return out
}

// factTable is the warehouse name of the fact table charts read from.
const factTable = transform.FactTableName
