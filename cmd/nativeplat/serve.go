//go:build linux || darwin || freebsd

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/zhangyunhao116/nativeplat"
	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// Benchmark server defaults.
const (
	defaultServeAddr = "127.0.0.1"
	defaultServePort = 14873
	sockaddrIn       = "sockaddr_in"
)

// responseBody is the fixed payload of every response. The response
// carries one extra newline after it, so clients reading to EOF see
// len(responseBody)+1 bytes of body.
const responseBody = "Hello, world!\n"

var response = []byte("HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/plain\r\n" +
	"Content-Length: " + strconv.Itoa(len(responseBody)) + "\r\n" +
	"Connection: close\r\n\r\n" +
	responseBody + "\n")

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		port    int
		backlog int
		count   int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the TCP benchmark server on the native socket table",
		Long: `Listen on an IPv4 address with the native socket table and answer every
connection with a fixed HTTP/1.1 200 response. Native interrupts are always
enabled because the socket address is encoded in raw memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ip, err := netip.ParseAddr(addr)
			if err != nil || !ip.Is4() {
				return fmt.Errorf("--addr %q is not an IPv4 address", addr)
			}
			if port < 0 || port > 65535 {
				return fmt.Errorf("--port %d out of range", port)
			}
			h, release, err := a.handle(cmd, nativeplat.WithNativeInterrupt(true))
			if err != nil {
				return err
			}
			defer release()
			s, err := newServer(h, a.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			return s.serve(cmd.Context(), netip.AddrPortFrom(ip, uint16(port)), backlog, count, func(p int) {
				fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", netip.AddrPortFrom(ip, uint16(p)))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", defaultServeAddr, "IPv4 address to listen on")
	f.IntVar(&port, "port", defaultServePort, "TCP port to listen on (0 picks a free port)")
	f.IntVar(&backlog, "backlog", 0, "listen backlog (0 uses platform.socket.SOMAXCONN)")
	f.IntVar(&count, "count", 0, "exit after this many connections (0 serves forever)")
	return cmd
}

// server answers connections using only the platform's native tables.
type server struct {
	h      *nativeplat.Handle
	mem    platform.RawMemory
	enc    *abi.Encoder
	consts map[string]int
	logger *slog.Logger
}

func newServer(h *nativeplat.Handle, logger *slog.Logger) (*server, error) {
	avail, ok := h.NativeAccess().(platform.Available)
	if !ok {
		return nil, &platform.CapabilityError{Capability: "native memory", Op: "serve"}
	}
	layout, ok := h.Layout(sockaddrIn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", platform.ErrUnknownLayout, sockaddrIn)
	}
	enc, err := abi.NewEncoder(avail.Memory, layout)
	if err != nil {
		return nil, err
	}
	s := &server{h: h, mem: avail.Memory, enc: enc, consts: map[string]int{}, logger: logger}
	for _, key := range []string{"AF_INET", "SOCK_STREAM", "IPPROTO_TCP", "SOL_SOCKET", "SO_REUSEADDR", "SOMAXCONN"} {
		v, ok := h.Configuration().Int("platform.socket." + key)
		if !ok {
			return nil, fmt.Errorf("configuration lacks platform.socket.%s", key)
		}
		s.consts[key] = int(v)
	}
	return s, nil
}

// sockaddr encodes ap as a struct sockaddr_in. The caller frees it.
func (s *server) sockaddr(ap netip.AddrPort) (uintptr, error) {
	ip := ap.Addr().As4()
	values := map[string]uint64{
		"sin_family": uint64(s.consts["AF_INET"]),
		"sin_port":   uint64(ap.Port()),
		"sin_addr":   uint64(ip[0])<<24 | uint64(ip[1])<<16 | uint64(ip[2])<<8 | uint64(ip[3]),
	}
	layout := s.enc.Layout()
	if _, ok := layout.Field("sin_len"); ok {
		values["sin_len"] = uint64(layout.Size)
	}
	return s.h.EncodeStruct(sockaddrIn, values)
}

// listen returns a listening socket bound to ap and the bound port.
func (s *server) listen(ap netip.AddrPort, backlog int) (fd, port int, err error) {
	sk := s.h.Sockets()
	fd = sk.Socket(s.consts["AF_INET"], s.consts["SOCK_STREAM"], s.consts["IPPROTO_TCP"])
	if fd < 0 {
		return -1, 0, errors.New("socket() failed")
	}
	fail := func(op string) (int, int, error) {
		_ = unix.Close(fd)
		return -1, 0, fmt.Errorf("%s() failed on fd %d", op, fd)
	}

	one, err := s.mem.Allocate(4)
	if err != nil {
		_ = unix.Close(fd)
		return -1, 0, err
	}
	s.mem.PutUint32(one, 1)
	rc := sk.Setsockopt(fd, s.consts["SOL_SOCKET"], s.consts["SO_REUSEADDR"], one, 4)
	s.mem.Free(one)
	if rc != 0 {
		return fail("setsockopt")
	}

	sa, err := s.sockaddr(ap)
	if err != nil {
		_ = unix.Close(fd)
		return -1, 0, err
	}
	defer s.mem.Free(sa)
	size := int(s.enc.Layout().Size)
	if sk.Bind(fd, sa, size) != 0 {
		return fail("bind")
	}
	if backlog <= 0 {
		backlog = s.consts["SOMAXCONN"]
	}
	if sk.Listen(fd, backlog) != 0 {
		return fail("listen")
	}

	// Read back the bound port; it differs from ap.Port() when that is 0.
	lenp, err := s.mem.Allocate(4)
	if err != nil {
		_ = unix.Close(fd)
		return -1, 0, err
	}
	defer s.mem.Free(lenp)
	s.mem.PutUint32(lenp, uint32(size))
	if sk.Getsockname(fd, sa, lenp) != 0 {
		return fail("getsockname")
	}
	p, err := s.enc.Get(sa, "sin_port")
	if err != nil {
		_ = unix.Close(fd)
		return -1, 0, err
	}
	return fd, int(p), nil
}

// serve accepts connections on ap until ctx is done or count connections
// have been answered. ready is called with the bound port before the
// first accept.
func (s *server) serve(ctx context.Context, ap netip.AddrPort, backlog, count int, ready func(port int)) error {
	fd, port, err := s.listen(ap, backlog)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	s.logger.Info("listening", "addr", ap.Addr(), "port", port, "fd", fd)
	if ready != nil {
		ready(port)
	}

	// accept blocks inside libc, so it only runs once poll reports a
	// pending connection. Cancellation wakes poll through a self-pipe.
	wake := make([]int, 2)
	if err := unix.Pipe(wake); err != nil {
		return fmt.Errorf("pipe: %w", err)
	}
	defer unix.Close(wake[0])
	defer unix.Close(wake[1])
	stop := context.AfterFunc(ctx, func() {
		if _, err := unix.Write(wake[1], []byte{0}); err != nil {
			s.logger.Warn("wake accept loop", "err", err)
		}
	})
	defer stop()

	for n := 0; count <= 0 || n < count; n++ {
		ok, err := waitAcceptable(fd, wake[0])
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c := s.h.Sockets().Accept(fd, 0, 0)
		if c < 0 {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept() failed on fd %d", fd)
		}
		if err := answer(c); err != nil {
			s.logger.Warn("connection failed", "fd", c, "err", err)
		}
	}
	return nil
}

// waitAcceptable blocks until fd has a pending connection (true) or wake
// becomes readable (false).
func waitAcceptable(fd, wake int) (bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(fd), Events: unix.POLLIN},
		{Fd: int32(wake), Events: unix.POLLIN},
	}
	for {
		fds[0].Revents, fds[1].Revents = 0, 0
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll: %w", err)
		}
		if fds[1].Revents != 0 {
			return false, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			return false, fmt.Errorf("poll: listening fd %d failed", fd)
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			return true, nil
		}
	}
}

// answer reads the request line from fd, writes the fixed response and
// closes fd.
func answer(fd int) error {
	defer unix.Close(fd)
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(fd, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n == 0 || bytes.IndexByte(buf[:n], '\n') >= 0 {
			break
		}
	}
	for out := response; len(out) > 0; {
		n, err := unix.Write(fd, out)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		out = out[n:]
	}
	return nil
}
