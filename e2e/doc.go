// Package e2e holds the browser end-to-end suite. It runs against --baseurl
// on the host chosen with --host, for example:
//
//	go test ./e2e -args -browser firefox -headless True
//	go test ./e2e -args -host gridB -platform Windows -os-version 11
//
// The suite is skipped under -short.
package e2e
