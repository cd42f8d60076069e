package platform

// nopThreads stands in for the native thread table when native interrupts
// are disabled. Every call succeeds and does nothing.
type nopThreads struct{}

// NopThreads returns a Threads whose operations are no-ops. PthreadSelf
// returns 0 and PthreadKill reports success without sending anything.
func NopThreads() Threads {
	return nopThreads{}
}

func (nopThreads) PthreadSelf() uintptr { return 0 }

func (nopThreads) PthreadKill(_ uintptr, _ int) int { return 0 }
