//go:build !unix

package main

import (
	"errors"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

func mmapAllocator() (cowdata.Allocator, error) {
	return nil, errors.New("mmap allocator is only available on unix")
}
