//go:build js && wasm

// Package jsdom binds the guard's DOM contract to the browser through
// syscall/js.
package jsdom

import (
	"syscall/js"

	"github.com/goliatone/go-formguard/pkg/guard"
)

// Document wraps the global document object.
type Document struct {
	value js.Value
}

// Global returns the page's document.
func Global() Document {
	return Document{value: js.Global().Get("document")}
}

// ElementByID implements guard.Document.
func (d Document) ElementByID(id string) (guard.Element, bool) {
	el := d.value.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return element{value: el}, true
}

// FormByAction implements guard.Document.
func (d Document) FormByAction(action string) (guard.Form, bool) {
	el := d.value.Call("querySelector", guard.FormSelector(action))
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return form{value: el}, true
}

// OnReady runs fn once the DOM is parsed, immediately if it already is.
func (d Document) OnReady(fn func()) {
	if d.value.Get("readyState").String() != "loading" {
		fn()
		return
	}
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	d.value.Call("addEventListener", "DOMContentLoaded", cb)
}

type element struct {
	value js.Value
}

func (e element) Value() string {
	return e.value.Get("value").String()
}

func (e element) Focus() {
	e.value.Call("focus")
}

type form struct {
	value js.Value
}

// OnSubmit registers handler for the lifetime of the page; the callback is
// never released.
func (f form) OnSubmit(handler func(guard.SubmitEvent)) {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		handler(event{value: args[0]})
		return nil
	})
	f.value.Call("addEventListener", "submit", cb)
}

type event struct {
	value js.Value
}

func (e event) PreventDefault() {
	e.value.Call("preventDefault")
}

// Alerter shows messages with window.alert.
type Alerter struct{}

// Alert implements guard.Alerter.
func (Alerter) Alert(message string) {
	js.Global().Call("alert", message)
}
