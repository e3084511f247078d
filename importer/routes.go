package importer

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parable-health/emrbridge/relay"
)

// Routes exposes the importer over HTTP so a bridge running in another
// process can hand envelopes off with a plain webhook surface. The tenant
// may be supplied per request via the X-Tenant-ID header; otherwise the
// importer's fallback source applies.
func Routes(i *Importer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/emr/import", func(w http.ResponseWriter, req *http.Request) {
		var env relay.Envelope
		if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
			writeAck(w, http.StatusBadRequest, relay.Ack{Success: false, Error: "malformed envelope"})
			return
		}

		ctx := req.Context()
		if tenantID := req.Header.Get("X-Tenant-ID"); tenantID != "" {
			ctx = WithTenant(ctx, tenantID)
		}

		if err := i.Handle(ctx, env); err != nil {
			logger.Error("importer: import failed", "type", env.Type, "error", err)
			writeAck(w, http.StatusUnprocessableEntity, relay.Ack{Success: false, Error: err.Error()})
			return
		}
		writeAck(w, http.StatusOK, relay.Ack{Success: true})
	})

	return r
}

func writeAck(w http.ResponseWriter, status int, ack relay.Ack) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ack)
}
