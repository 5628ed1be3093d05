// Package api provides an HTTP client for the tagging backend.
//
// # Overview
//
// The containers in package tagging load project lists, image lists, tag
// categories and per-image tag files through this client, save tag files
// back, and stream model-suggested tags. Transport details never reach view
// code: containers translate results into state transitions.
//
// # Architecture
//
//   - client.go: Request envelope, typed helpers, Backend interface
//   - events.go: server-sent event stream reader
//   - types.go: payloads mirroring the API schema
//
// # API Endpoints
//
//   - GET /api/projects
//   - GET /api/projects/{project}/images
//   - GET /api/projects/{project}/categories
//   - GET /api/projects/{project}/images/{image}/tags
//   - PUT /api/projects/{project}/images/{image}/tags
//   - GET /api/projects/{project}/images/{image}/autotag (text/event-stream)
//
// # Request Handling
//
// Request never returns a Go error. Every outcome is a Response:
//
//	resp := client.Request(ctx, "/api/projects", api.Options{})
//	if !resp.Success {
//		glog.Warningf("load failed: %v", resp.Err())
//	}
//
// Failures carry messages such as:
//   - "execute request: dial tcp: connection refused"
//   - "api /api/projects returned status 500" (plus any server "errors")
//   - "decode response: invalid JSON"
//
// The typed helpers (ListProjects, ImageTags, ...) convert an unsuccessful
// Response into a *ResponseError.
//
// # Event Streams
//
// StreamEvents blocks until the stream ends and reports true only for a
// clean close by the server. Transport errors, error statuses and context
// cancellation report false. Streams use a client without a timeout; regular
// requests time out after 10 seconds.
//
// # Testing Considerations
//
// Use httptest.Server for the client itself and a Backend fake for
// containers.
package api
