// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. Code expiry and token lifetimes are decided against the
// injected clock, so tests can drive them with a Manual clock instead of
// sleeping through real TTLs.
package clock
