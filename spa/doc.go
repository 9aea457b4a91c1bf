// Package spa serves a single-page application's built assets.
//
// Requests for files that exist are served directly. Any other path falls back
// to index.html so the client-side router can handle it, except under the
// excluded prefixes (by default /api/), which get a JSON 404 instead.
//
// Content types come from the file extension first and from content sniffing
// when the extension is unknown.
//
// # What this package must NOT do
//
//   - Authenticate requests (wrap the handler with middleware when needed).
//   - Serve anything outside the root filesystem.
//   - Render templates or accept uploads.
package spa
