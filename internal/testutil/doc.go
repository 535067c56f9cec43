// Package testutil provides test-only allocator infrastructure for
// cowdata behavior tests: a tracking allocator that counts alloc/realloc/
// free traffic and live blocks, and a failing allocator for exercising
// out-of-memory paths.
package testutil
