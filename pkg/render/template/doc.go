// Package template defines the renderer-agnostic template seam shared by the
// page renderers and the guard script generator.
package template
