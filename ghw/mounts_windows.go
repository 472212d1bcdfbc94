//go:build windows

package ghw

import "errors"

func listMounts(string) ([]mountEntry, error) {
	return nil, errors.New("mount table not available on windows")
}
