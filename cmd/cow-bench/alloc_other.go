//go:build !unix

package main

import (
	"fmt"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

func allocatorByName(name string) (cowdata.Allocator, error) {
	switch name {
	case "heap":
		return cowdata.Heap{}, nil
	case "mmap":
		return nil, fmt.Errorf("allocator %q is only available on unix", name)
	default:
		return nil, fmt.Errorf("unknown allocator %q", name)
	}
}
