//go:build unix

package main

import "github.com/calvinalkan/cowdata/pkg/cowdata"

func mmapAllocator() (cowdata.Allocator, error) {
	return cowdata.Mmap{}, nil
}
