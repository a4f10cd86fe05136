// Command libuserdefaults builds the C shared library:
//
//	go build -buildmode=c-shared -o libuserdefaults.dylib ./cmd/libuserdefaults
//
// C callers include internal/cabi/user_defaults.h.
package main

import _ "github.com/kalambet/userdefaults/internal/cabi"

func main() {}
