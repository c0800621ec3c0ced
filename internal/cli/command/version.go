package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/minipay-go/internal/cli/output"
	"github.com/yndnr/minipay-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			rt, err := mustRuntime(c)
			if err != nil {
				return err
			}
			info := buildinfo.Get()
			if rt.Format == output.FormatTable {
				return rt.Print(info.Map())
			}
			return rt.Print(info)
		},
	}
}
