// Package server serves a name/location directory over HTTP and WebSocket.
//
// The server wraps any directory.Directory (normally the in-memory mock) so
// the form can be driven across a real network path. Routes:
//
//	GET /api/v1/locations            {"locations": [...]}
//	GET /api/v1/names/check?name=X   {"name": "X", "valid": true}
//	GET /api/v1/ws                   request/response frames, matched by id
//	GET /healthz                     ok
//	GET /metrics                     Prometheus exposition
//
// A missing name parameter answers 400; backend failures answer 503 with an
// {"error": "..."} body.
//
// # WebSocket Frames
//
// Each text frame is one JSON object. Requests carry an id the server echoes
// back, and requests on one connection are answered concurrently, so replies
// may arrive out of order:
//
//	-> {"id": "7c1e...", "type": "check_name", "name": "alice"}
//	<- {"id": "7c1e...", "type": "name_checked", "name": "alice", "valid": true}
//
// Frames for a session are optionally captured to a JSONL transcript in
// Config.CaptureDir.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Port: 8080, Advertise: true}, directory.NewDefaultMemory())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until SIGINT or SIGTERM, then drains open connections. When
// Advertise is set the server registers itself over mDNS as _nameloc._tcp.
package server
