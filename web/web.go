// Package web embeds the HTML templates and static assets of the GitPeek
// front end so the server binary is self-contained.
package web

import "embed"

//go:embed templates/*.html static/*
var FS embed.FS
