package viewer

import (
	"errors"
	"fmt"
)

// ErrAssetLoad is wrapped by every AssetLoadError.
var ErrAssetLoad = errors.New("asset load failed")

// AssetLoadError reports a failed load. The viewer keeps showing what it
// showed before; retrying is a fresh Load.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrAssetLoad, e.Path, e.Err)
}

func (e *AssetLoadError) Is(target error) bool {
	return target == ErrAssetLoad
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}
