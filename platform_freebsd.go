//go:build freebsd

package nativeplat

import "github.com/zhangyunhao116/nativeplat/platform/freebsd"

func init() {
	detectPlatformFn = freebsd.New
}
