// Package estimate values a domain name. A Service combines the static
// attributes of the name (TLD, label length, label structure) with signals
// gathered from SignalSources into a conservative price and a grade.
//
// Prices multiply: every matched attribute scales the base price by its
// price factor. Grades add: every matched attribute shifts the base grade by
// its grade factor.
package estimate
