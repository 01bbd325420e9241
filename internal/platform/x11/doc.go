// Package x11 implements the window, display and virtual desktop backends
// for X11 sessions through EWMH and ICCCM properties, RandR and Xinerama.
package x11
