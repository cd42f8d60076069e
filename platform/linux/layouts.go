//go:build linux

package linux

import (
	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// SockaddrInLayout names the struct sockaddr_in layout.
const SockaddrInLayout = "sockaddr_in"

// Layouts returns the glibc x86_64/arm64 layouts of struct sigaction and
// struct sockaddr_in.
func Layouts() []abi.Layout {
	return []abi.Layout{
		{
			Name: platform.SigActionLayout,
			Size: 152,
			Fields: []abi.Field{
				{Name: "sa_handler", Offset: 0, Size: 8},
				{Name: "sa_mask", Offset: 8, Size: 128},
				{Name: "sa_flags", Offset: 136, Size: 4},
				{Name: "sa_restorer", Offset: 144, Size: 8},
			},
		},
		{
			Name: SockaddrInLayout,
			Size: 16,
			Fields: []abi.Field{
				{Name: "sin_family", Offset: 0, Size: 2},
				{Name: "sin_port", Offset: 2, Size: 2, Order: abi.Network},
				{Name: "sin_addr", Offset: 4, Size: 4, Order: abi.Network},
			},
		},
	}
}
