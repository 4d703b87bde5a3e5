// Package http exposes the published snapshot as a read-only JSON API.
//
// Routes (relative to the configured base path):
//   - Posts: /posts?page=&size=, /archive
//   - Pages: /pages
//   - Tags: /tags, /tags/{tag}
//   - Documents: /documents/{id...}, /resolve?path=
//   - Operations: /healthz, /metrics
//
// Host applications can mount the router returned by API.Router on their own
// chi router.
package http
