//go:build linux

package nativeplat

import "github.com/zhangyunhao116/nativeplat/platform/linux"

func init() {
	detectPlatformFn = linux.New
}
