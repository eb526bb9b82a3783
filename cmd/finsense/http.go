package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"goa.design/clue/debug"
	"goa.design/clue/health"
	"goa.design/clue/log"

	"finsense/agent"
	"finsense/pipeline"
	"finsense/schema"
	"finsense/session"
)

// serveHTTP runs the HTTP front end until the context is cancelled or a
// SIGINT/SIGTERM arrives, then shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, orch *pipeline.Orchestrator, store session.Store, dbg bool) error {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/agent", agentHandler(orch))

	var pingers []health.Pinger
	if pinger, ok := store.(health.Pinger); ok {
		pingers = append(pingers, pinger)
	}
	check := health.Handler(health.NewChecker(pingers...))
	mux.Handle("GET /healthz", check)
	mux.Handle("GET /livez", check)

	var handler http.Handler = mux
	if dbg {
		// Log request and response bodies if debug logs are enabled.
		handler = debug.HTTP()(handler)
	}
	handler = log.HTTP(ctx)(handler)

	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 60 * time.Second}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf(ctx, "HTTP server listening on %q", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Printf(ctx, "shutting down HTTP server at %q", addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// agentHandler decodes and contract-validates the inbound payload, runs the
// orchestrator, and writes the output as JSON. Contract violations on the
// inbound payload are the caller's fault and map to 400.
func agentHandler(orch *pipeline.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "request body is not valid JSON", nil)
			return
		}
		if descs := schema.Validate(payload, schema.AgentInput); len(descs) > 0 {
			writeError(w, http.StatusBadRequest, "request violates the agent input contract", descs)
			return
		}

		var input agent.Input
		data, err := json.Marshal(payload)
		if err == nil {
			err = json.Unmarshal(data, &input)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "request does not decode to an agent input", nil)
			return
		}

		out, err := orch.Handle(r.Context(), input)
		if err != nil {
			var failure *pipeline.SimulationContractFailure
			if errors.As(err, &failure) {
				writeError(w, http.StatusBadGateway, "simulation result violates contract", failure.Descriptors)
				return
			}
			log.Errorf(r.Context(), err, "pipeline run failed")
			writeError(w, http.StatusInternalServerError, "pipeline run failed", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			log.Errorf(r.Context(), err, "encode response")
		}
	})
}

type errorDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string        `json:"error"`
	Details []errorDetail `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, descs []schema.ErrorDescriptor) {
	body := errorBody{Error: msg}
	for _, d := range descs {
		body.Details = append(body.Details, errorDetail{Path: d.Path, Message: d.Message})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
