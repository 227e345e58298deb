package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process-wide readiness flag. Servers call
// SetReady(false) when draining so load balancers stop routing new
// traffic before in-flight requests finish.
func SetReady(v bool) {
	ready.Store(v)
}

// Ready reports the process-wide readiness flag.
func Ready() bool {
	return ready.Load()
}
