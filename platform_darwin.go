//go:build darwin

package nativeplat

import "github.com/zhangyunhao116/nativeplat/platform/darwin"

func init() {
	detectPlatformFn = darwin.New
}
