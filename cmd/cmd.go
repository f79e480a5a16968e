package cmd

import (
	"github.com/spf13/cobra"
	"github.com/unitlink/unitlink/tools"
	"github.com/unitlink/unitlink/utils"
)

const banner = `
             _ _   _ _       _
  _   _ _ __ (_) |_| (_)_ __ | | __
 | | | | '_ \| | __| | | '_ \| |/ /
 | |_| | | | | | |_| | | | | |   <
  \__,_|_| |_|_|\__|_|_|_| |_|_|\_\

TLV-framed IPC messaging channel
`

var CmdUnitlink = &cobra.Command{
	Use:     "unitlink",
	Short:   "TLV-framed IPC messaging channel",
	Long:    banner[1:],
	Version: utils.UnitlinkVersion,
}

func init() {
	cobra.EnableCommandSorting = false
	CmdUnitlink.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdUnitlink.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdUnitlink.PersistentFlags().Lookup("help").Hidden = true

	CmdUnitlink.AddGroup(&cobra.Group{ID: "tools", Title: "Channel Tools"})
	CmdUnitlink.AddCommand(tools.CmdProbe())
	CmdUnitlink.AddCommand(tools.CmdAgentSim())
	CmdUnitlink.AddCommand(tools.CmdTlvDump())
}
