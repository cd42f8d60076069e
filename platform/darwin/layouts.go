//go:build darwin

package darwin

import (
	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// SockaddrInLayout names the struct sockaddr_in layout.
const SockaddrInLayout = "sockaddr_in"

// Layouts returns the macOS layouts of struct sigaction (the user-space
// one, without sa_tramp) and struct sockaddr_in.
func Layouts() []abi.Layout {
	return []abi.Layout{
		{
			Name: platform.SigActionLayout,
			Size: 16,
			Fields: []abi.Field{
				{Name: "sa_handler", Offset: 0, Size: 8},
				{Name: "sa_mask", Offset: 8, Size: 4},
				{Name: "sa_flags", Offset: 12, Size: 4},
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
