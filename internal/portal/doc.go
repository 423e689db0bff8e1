// Package portal drives the time-tracking web portal through a headless
// browser: signing in through the Microsoft SSO flow, scraping the
// clocking table and pressing the clock buttons.
//
// Everything above this package treats it as a narrow Driver interface
// returning snapshots or typed errors; no DOM details leak out.
package portal
