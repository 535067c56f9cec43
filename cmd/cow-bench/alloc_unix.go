//go:build unix

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
		return cowdata.Mmap{}, nil
	default:
		return nil, fmt.Errorf("unknown allocator %q", name)
	}
}
