//go:build linux || darwin || freebsd

package native

import "github.com/zhangyunhao116/nativeplat/platform"

// sockets is the socket table bound from the C library.
type sockets struct {
	getaddrinfo  func(node, service string, hints, res uintptr) int32
	freeaddrinfo func(ai uintptr)
	gaiStrerror  func(code int32) string
	getnameinfo  func(sa uintptr, salen uint32, host uintptr, hostlen uint32, serv uintptr, servlen uint32, flags int32) int32
	socket       func(domain, typ, protocol int32) int32
	setsockopt   func(fd, level, name int32, value uintptr, length uint32) int32
	getsockopt   func(fd, level, name int32, value, length uintptr) int32
	bind         func(fd int32, addr uintptr, length uint32) int32
	listen       func(fd, backlog int32) int32
	accept       func(fd int32, addr, length uintptr) int32
	gethostname  func(name uintptr, length uintptr) int32
	getpeername  func(fd int32, addr, length uintptr) int32
	getsockname  func(fd int32, addr, length uintptr) int32
}

// NewSockets binds the socket table from libc.
func NewSockets(libc *Library) (platform.Sockets, error) {
	s := &sockets{}
	err := Bind([]*Library{libc}, []Symbol{
		{"getaddrinfo", &s.getaddrinfo},
		{"freeaddrinfo", &s.freeaddrinfo},
		{"gai_strerror", &s.gaiStrerror},
		{"getnameinfo", &s.getnameinfo},
		{"socket", &s.socket},
		{"setsockopt", &s.setsockopt},
		{"getsockopt", &s.getsockopt},
		{"bind", &s.bind},
		{"listen", &s.listen},
		{"accept", &s.accept},
		{"gethostname", &s.gethostname},
		{"getpeername", &s.getpeername},
		{"getsockname", &s.getsockname},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sockets) Getaddrinfo(node, service string, hints, res uintptr) int {
	return int(s.getaddrinfo(node, service, hints, res))
}

func (s *sockets) Freeaddrinfo(ai uintptr) { s.freeaddrinfo(ai) }

func (s *sockets) GaiStrerror(code int) string { return s.gaiStrerror(int32(code)) }

func (s *sockets) Getnameinfo(sa uintptr, salen int, host uintptr, hostlen int, serv uintptr, servlen int, flags int) int {
	return int(s.getnameinfo(sa, uint32(salen), host, uint32(hostlen), serv, uint32(servlen), int32(flags)))
}

func (s *sockets) Socket(domain, typ, protocol int) int {
	return int(s.socket(int32(domain), int32(typ), int32(protocol)))
}

func (s *sockets) Setsockopt(fd, level, name int, value uintptr, length int) int {
	return int(s.setsockopt(int32(fd), int32(level), int32(name), value, uint32(length)))
}

func (s *sockets) Getsockopt(fd, level, name int, value, length uintptr) int {
	return int(s.getsockopt(int32(fd), int32(level), int32(name), value, length))
}

func (s *sockets) Bind(fd int, addr uintptr, length int) int {
	return int(s.bind(int32(fd), addr, uint32(length)))
}

func (s *sockets) Listen(fd, backlog int) int {
	return int(s.listen(int32(fd), int32(backlog)))
}

func (s *sockets) Accept(fd int, addr, length uintptr) int {
	return int(s.accept(int32(fd), addr, length))
}

func (s *sockets) Gethostname(name uintptr, length int) int {
	return int(s.gethostname(name, uintptr(length)))
}

func (s *sockets) Getpeername(fd int, addr, length uintptr) int {
	return int(s.getpeername(int32(fd), addr, length))
}

func (s *sockets) Getsockname(fd int, addr, length uintptr) int {
	return int(s.getsockname(int32(fd), addr, length))
}

// threads is the pthread table.
type threads struct {
	pthreadSelf func() uintptr
	pthreadKill func(thread uintptr, sig int32) int32
}

// NewThreads binds pthread_self and pthread_kill, searching libs in order.
// On glibc before 2.34 they live in libpthread; later versions and the BSDs
// export them from libc as well.
func NewThreads(libs ...*Library) (platform.Threads, error) {
	t := &threads{}
	err := Bind(libs, []Symbol{
		{"pthread_self", &t.pthreadSelf},
		{"pthread_kill", &t.pthreadKill},
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *threads) PthreadSelf() uintptr { return t.pthreadSelf() }

func (t *threads) PthreadKill(thread uintptr, sig int) int {
	return int(t.pthreadKill(thread, int32(sig)))
}

// mallocFree is the C allocator table.
type mallocFree struct {
	malloc func(size uintptr) uintptr
	free   func(addr uintptr)
}

// NewMallocFree binds malloc and free from libc.
func NewMallocFree(libc *Library) (platform.MallocFree, error) {
	m := &mallocFree{}
	if err := Bind([]*Library{libc}, []Symbol{
		{"malloc", &m.malloc},
		{"free", &m.free},
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *mallocFree) Malloc(size uintptr) uintptr { return m.malloc(size) }

func (m *mallocFree) Free(addr uintptr) { m.free(addr) }
