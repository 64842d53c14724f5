// Package mock contains gomock stubs for interfaces declared by this
// repository, for use in unit tests.
package mock

//go:generate mockgen -package mock -destination blockbuffer.go github.com/buildbarn/bb-blockbuffer/pkg/blockbuffer BackingStore
//go:generate mockgen -package mock -destination blockdevice.go github.com/buildbarn/bb-blockbuffer/pkg/blockdevice BlockDevice
//go:generate mockgen -package mock -destination clock.go github.com/buildbarn/bb-blockbuffer/pkg/clock Clock
