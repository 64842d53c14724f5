package blockdevice

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type concurrencyLimitingBlockDevice struct {
	BlockDevice
	semaphore *semaphore.Weighted
}

// NewConcurrencyLimitingBlockDevice is a decorator for BlockDevice that
// limits the number of calls to ReadAt(), WriteAt() and Sync() that may
// run in parallel. When many buffers access the same device at once,
// this prevents exhaustion of operating system level threads, which can
// cause the Go runtime to crash the process.
func NewConcurrencyLimitingBlockDevice(base BlockDevice, semaphore *semaphore.Weighted) BlockDevice {
	return &concurrencyLimitingBlockDevice{
		BlockDevice: base,
		semaphore:   semaphore,
	}
}

func (bd *concurrencyLimitingBlockDevice) acquire() {
	if err := bd.semaphore.Acquire(context.Background(), 1); err != nil {
		panic("acquiring semaphore with background context should never fail")
	}
}

func (bd *concurrencyLimitingBlockDevice) ReadAt(p []byte, off int64) (int, error) {
	bd.acquire()
	defer bd.semaphore.Release(1)
	return bd.BlockDevice.ReadAt(p, off)
}

func (bd *concurrencyLimitingBlockDevice) WriteAt(p []byte, off int64) (int, error) {
	bd.acquire()
	defer bd.semaphore.Release(1)
	return bd.BlockDevice.WriteAt(p, off)
}

func (bd *concurrencyLimitingBlockDevice) Sync() error {
	bd.acquire()
	defer bd.semaphore.Release(1)
	return bd.BlockDevice.Sync()
}
