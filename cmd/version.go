package cmd

import (
	"fmt"

	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/version"
)

// VersionCmd prints detailed version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(_ *model.Globals) error {
	info := version.Get()
	fmt.Printf("zenfeed %s\n", info.Version)
	fmt.Printf("  commit:     %s\n", info.GitCommit)
	fmt.Printf("  built:      %s\n", info.BuildDate)
	fmt.Printf("  go version: %s\n", info.GoVersion)
	return nil
}
