//go:build freebsd

package freebsd

import (
	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// SockaddrInLayout names the struct sockaddr_in layout.
const SockaddrInLayout = "sockaddr_in"

// Layouts returns the amd64/arm64 layouts of struct sigaction and
// struct sockaddr_in. sigaction ends with four bytes of padding.
func Layouts() []abi.Layout {
	return []abi.Layout{
		{
			Name: platform.SigActionLayout,
			Size: 32,
			Fields: []abi.Field{
				{Name: "sa_handler", Offset: 0, Size: 8},
				{Name: "sa_flags", Offset: 8, Size: 4},
				{Name: "sa_mask", Offset: 12, Size: 16},
			},
		},
		{
			Name: SockaddrInLayout,
			Size: 16,
			Fields: []abi.Field{
				{Name: "sin_len", Offset: 0, Size: 1},
				{Name: "sin_family", Offset: 1, Size: 1},
				{Name: "sin_port", Offset: 2, Size: 2, Order: abi.Network},
				{Name: "sin_addr", Offset: 4, Size: 4, Order: abi.Network},
			},
		},
	}
}
