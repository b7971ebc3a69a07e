package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/equitas/internal/common"
	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/peers"
)

var peersCmd = &cobra.Command{
	Use:   "peers [ticker]",
	Short: "Show the peer group used for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeers,
}

func runPeers(cmd *cobra.Command, args []string) error {
	ticker, err := common.ValidateTicker(args[0])
	if err != nil {
		return err
	}

	mapping, err := peers.LoadMapping(config.Peers.MappingFile)
	if err != nil {
		return err
	}

	group := models.NewPeerGroup(ticker, mapping.Lookup(ticker))
	list := group.Peers
	if config.Peers.MaxPeers > 0 && len(list) > config.Peers.MaxPeers {
		list = list[:config.Peers.MaxPeers]
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", group.Subject, strings.Join(list, ", "))
	return nil
}
