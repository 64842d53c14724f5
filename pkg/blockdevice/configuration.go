package blockdevice

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FileConfiguration describes a regular file that is used as a block
// device.
type FileConfiguration struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Configuration of a block device, as stored in a configuration file.
// Exactly one of DevicePath and File needs to be set.
type Configuration struct {
	DevicePath string             `json:"devicePath"`
	File       *FileConfiguration `json:"file"`
	DirectIO   bool               `json:"directIo"`
}

// NewBlockDeviceFromConfiguration creates a BlockDevice based on
// parameters provided in a configuration file. The sector size and
// sector count of the block device are returned as well.
func NewBlockDeviceFromConfiguration(configuration *Configuration) (BlockDevice, int, int64, error) {
	if configuration == nil {
		return nil, 0, 0, status.Error(codes.InvalidArgument, "Block device configuration not specified")
	}

	switch {
	case configuration.DevicePath != "" && configuration.File != nil:
		return nil, 0, 0, status.Error(codes.InvalidArgument, "Block device configuration cannot contain both a device path and a file")
	case configuration.DevicePath != "":
		return NewBlockDeviceFromDevice(configuration.DevicePath, configuration.DirectIO)
	case configuration.File != nil:
		return NewBlockDeviceFromFile(configuration.File.Path, configuration.File.SizeBytes, configuration.DirectIO)
	default:
		return nil, 0, 0, status.Error(codes.InvalidArgument, "Configuration did not contain a supported block device source")
	}
}
