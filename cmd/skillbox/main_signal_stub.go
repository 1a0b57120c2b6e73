//go:build excludemain

package main

// waitForShutdownSignal is a no-op when building with -tags=excludemain for coverage.
func init() {
	daemonWaitForShutdown = waitForShutdownSignal
}

func waitForShutdownSignal() {
	_ = 0
}
