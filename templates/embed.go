package templates

import "embed"

//go:embed layouts/*.gohtml pages/*.gohtml partials/*.gohtml
var FS embed.FS
