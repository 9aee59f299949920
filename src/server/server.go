// Package server serves the PayPal return and cancel redirects, which is
// where payer approval arrives, plus health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thaiminh0911/telefilm-bot/src/conversation"
	"github.com/thaiminh0911/telefilm-bot/src/metrics"
)

type Confirmer interface {
	Confirm(ctx context.Context, paymentID, payerID, trigger string) (conversation.Outcome, error)
}

const (
	pageApproved = "Thanh toán thành công. Bạn có thể quay lại Telegram."
	pageDeclined = "Thanh toán không thành công. Vui lòng quay lại Telegram và thử lại."
	pageUnknown  = "Không tìm thấy thanh toán hoặc thanh toán đã được xác nhận."
	pageError    = "Không thể xác nhận thanh toán lúc này. Vui lòng thử lại sau."
	pageBadQuery = "Thiếu thông tin thanh toán."
	pageCanceled = "Bạn đã huỷ thanh toán."
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func New(addr string, confirmer Confirmer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(confirmer, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func NewRouter(confirmer Confirmer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	h := &handler{confirmer: confirmer, logger: logger}
	r.Get("/payment/execute", h.execute)
	r.Get("/payment/cancel", h.cancel)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type handler struct {
	confirmer Confirmer
	logger    *slog.Logger
}

// execute handles the PayPal return redirect:
// /payment/execute?paymentId=PAY-...&token=EC-...&PayerID=...
func (h *handler) execute(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("paymentId")
	payerID := r.URL.Query().Get("PayerID")
	if paymentID == "" || payerID == "" {
		writePage(w, http.StatusBadRequest, pageBadQuery)
		return
	}

	outcome, err := h.confirmer.Confirm(r.Context(), paymentID, payerID, conversation.TriggerReturnURL)
	if err != nil {
		h.logger.Warn("confirm payment from return url", "error", err, "payment_id", paymentID)
		writePage(w, http.StatusBadGateway, pageError)
		return
	}

	switch outcome {
	case conversation.OutcomeApproved:
		writePage(w, http.StatusOK, pageApproved)
	case conversation.OutcomeDeclined:
		writePage(w, http.StatusOK, pageDeclined)
	default:
		writePage(w, http.StatusNotFound, pageUnknown)
	}
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("payment canceled by payer", "token", r.URL.Query().Get("token"))
	writePage(w, http.StatusOK, pageCanceled)
}

func writePage(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		}()
		next.ServeHTTP(ww, r)
	})
}
