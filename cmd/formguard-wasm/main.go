//go:build js && wasm

// Command formguard-wasm attaches the Go form guard to the page it is loaded
// into. Build with GOOS=js GOARCH=wasm.
package main

import (
	"syscall/js"

	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/guard/jsdom"
)

func main() {
	cfg := guard.Config{}
	if lang := js.Global().Get("document").Get("documentElement").Get("lang"); lang.Type() == js.TypeString {
		cfg.Locale = lang.String()
	}

	doc := jsdom.Global()
	doc.OnReady(func() {
		guard.Attach(doc, jsdom.Alerter{}, cfg)
	})

	// Handlers live as long as the page; keep the runtime alive.
	select {}
}
