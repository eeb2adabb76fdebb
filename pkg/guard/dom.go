package guard

// Document is the slice of a page the guard needs. Lookups report absence
// through the boolean instead of nil values so fakes and js bindings cannot
// smuggle typed nils through the interface.
type Document interface {
	ElementByID(id string) (Element, bool)
	FormByAction(action string) (Form, bool)
}

// Element is a focusable input with a text value.
type Element interface {
	Value() string
	Focus()
}

// Form accepts a submit interceptor. Handlers run synchronously before the
// browser performs the default submission.
type Form interface {
	OnSubmit(handler func(SubmitEvent))
}

// SubmitEvent is the event handed to submit interceptors.
type SubmitEvent interface {
	PreventDefault()
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a plain function to Alerter.
type AlertFunc func(message string)

// Alert calls f(message).
func (f AlertFunc) Alert(message string) {
	f(message)
}
