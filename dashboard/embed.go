// Package dashboard provides the embedded web UI assets for the board client.
//
// The dashboard is a single page that renders the published view state
// (server list, entries, server status, loading and busy flags) from the
// Server-Sent Events stream and drives the board through the form POST
// action API. Embedding it allows single-binary deployment.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
