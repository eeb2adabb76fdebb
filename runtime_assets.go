package formguard

import (
	"io/fs"

	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/renderers/vanilla"
)

// StylesheetFS exposes the page stylesheet so Go applications can serve it
// next to their own pages.
//
// Typical mount:
//
//	mux.Handle("/static/css/",
//	  http.StripPrefix("/static/css/",
//	    http.FileServerFS(formguard.StylesheetFS()),
//	  ),
//	)
func StylesheetFS() fs.FS {
	return vanilla.AssetsFS()
}

// Script renders the browser guard for cfg. Serve it as text/javascript and
// load it with a script tag on any page carrying the guarded form.
func Script(cfg GuardConfig) ([]byte, error) {
	return guard.Script(cfg)
}
