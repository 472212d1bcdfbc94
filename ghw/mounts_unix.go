//go:build !windows

package ghw

import (
	mount "k8s.io/mount-utils"
)

func listMounts(file string) ([]mountEntry, error) {
	mps, err := mount.ListProcMounts(file)
	if err != nil {
		return nil, err
	}
	out := make([]mountEntry, 0, len(mps))
	for _, m := range mps {
		out = append(out, mountEntry{device: m.Device, path: m.Path})
	}
	return out, nil
}
