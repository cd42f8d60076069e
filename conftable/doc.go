// Package conftable builds the platform configuration table from two
// ordered layers: a default layer shared by every OS family and an override
// layer specific to one family. Values from the override layer win on key
// collision. The resulting Table is read-only.
//
// Layers are TOML documents. Nested tables are flattened into dotted keys,
// so
//
//	[platform.socket]
//	AF_INET = 2
//
// becomes the key "platform.socket.AF_INET" with value int64(2).
package conftable
