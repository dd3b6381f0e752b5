// Package server exposes the scheduler over HTTP while `merchtrack run --schedule --listen` is running.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers method-qualified
// patterns on an [http.ServeMux], so the mux itself rejects wrong methods with 405.
//
// [Middleware] wraps handlers in reverse order (last added executes innermost). [RequestLogger] and [Recoverer]
// log through charmbracelet/log.
//
// # Status Handler
//
// [StatusHandler] implements [Handler] with three read-only JSON routes:
//
//	GET /healthz          → {"status": "ok", "last_run": {...}, "next_run": "..."}
//	GET /runs?limit=&worksheet= → run journal, newest first
//	GET /loads            → open items per reviewer on the current worksheet
//
// The scheduler calls [StatusHandler.Record] after every run.
//
// [Listen] runs the server until its context is cancelled.
package server
