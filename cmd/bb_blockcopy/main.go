package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/buildbarn/bb-blockbuffer/pkg/blockcopy"
	"github.com/buildbarn/bb-blockbuffer/pkg/blockdevice"
	"github.com/buildbarn/bb-blockbuffer/pkg/clock"
	"github.com/buildbarn/bb-blockbuffer/pkg/global"
	"github.com/buildbarn/bb-blockbuffer/pkg/util"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// A utility for copying local files into ranges of a block device, and
// ranges of a block device into local files. Block devices opened with
// O_DIRECT only permit transfers of whole sectors, from and to sector
// aligned memory. Every transfer therefore goes through a buffer that
// permits access at arbitrary offsets.
//
// Transfers are run in parallel. As buffers write back entire windows
// of the block device, imports may not overlap with any other
// transfers.

func main() {
	if len(os.Args) != 2 {
		log.Fatal("Usage: bb_blockcopy bb_blockcopy.jsonnet")
	}
	var configuration blockcopy.ApplicationConfiguration
	if err := util.UnmarshalConfigurationFromFile(os.Args[1], &configuration); err != nil {
		log.Fatalf("Failed to read configuration from %s: %s", os.Args[1], err)
	}
	if configuration.Buffer == nil {
		log.Fatal("No buffer configuration provided")
	}

	blockDevice, sectorSizeBytes, sectorCount, err := blockdevice.NewBlockDeviceFromConfiguration(configuration.BlockDevice)
	if err != nil {
		log.Fatal("Failed to open block device: ", err)
	}
	if limit := configuration.MaximumConcurrentDeviceOperations; limit > 0 {
		blockDevice = blockdevice.NewConcurrencyLimitingBlockDevice(blockDevice, semaphore.NewWeighted(limit))
	}

	// Direct I/O requires memory to be aligned to the sector size.
	bufferConfiguration := *configuration.Buffer
	if configuration.BlockDevice.DirectIO && !bufferConfiguration.MemoryMapped && bufferConfiguration.BufferAlignmentBytes == 0 {
		bufferConfiguration.BufferAlignmentBytes = sectorSizeBytes
	}

	transfers, err := blockcopy.NewTransfersFromConfiguration(
		configuration.Transfers,
		blockcopy.NewWindowGeometryFromConfiguration(&bufferConfiguration, sectorSizeBytes))
	if err != nil {
		log.Fatal("Invalid transfers: ", err)
	}
	bufferFactory := blockcopy.NewBlockDeviceBufferFactory(
		&bufferConfiguration,
		blockDevice,
		sectorSizeBytes,
		int64(sectorSizeBytes)*sectorCount,
		clock.SystemClock)

	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, groupContext := errgroup.WithContext(signalContext)
	terminationContext, terminate := context.WithCancel(groupContext)

	if listenAddress := configuration.DiagnosticsHTTPListenAddress; listenAddress != "" {
		diagnosticsServer := global.NewDiagnosticsServer(listenAddress)
		diagnosticsServer.SetReady()
		group.Go(func() error {
			return diagnosticsServer.Serve(terminationContext)
		})
	}
	group.Go(func() error {
		defer terminate()
		if err := blockcopy.RunTransfers(groupContext, transfers, configuration.MaximumConcurrentTransfers, bufferFactory); err != nil {
			return err
		}
		if err := blockDevice.Sync(); err != nil {
			return util.StatusWrap(err, "Failed to synchronize block device")
		}
		return nil
	})

	var errs []error
	if err := group.Wait(); err != nil {
		errs = append(errs, err)
	}
	if err := blockDevice.Close(); err != nil {
		errs = append(errs, util.StatusWrap(err, "Failed to close block device"))
	}
	if err := util.StatusFromMultiple(errs); err != nil {
		log.Fatal(err)
	}
	log.Printf("Completed %d transfers", len(transfers))
}
