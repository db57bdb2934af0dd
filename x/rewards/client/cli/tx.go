package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// unroutedNote warns that the node cannot execute rewards txs yet
const unroutedNote = `The rewards msgs are not registered with the node's msg router yet, so a
broadcast tx is rejected when delivered. Use --generate-only to build and sign
the tx offline, or submit the operation through the rewards gateway
(rewards-api).`

// GetTxCmd returns the transaction commands for the rewards module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Rewards module transaction commands (not yet routable on chain)",
		Long:                       "Rewards module transaction commands.\n\n" + unroutedNote,
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdInit(),
		CmdEnter(),
		CmdAddFee(),
		CmdClaim(),
		CmdClose(),
	)
	for _, sub := range cmd.Commands() {
		if sub.Long == "" {
			sub.Long = sub.Short + "."
		}
		sub.Long = strings.TrimSpace(sub.Long) + "\n\n" + unroutedNote
	}

	return cmd
}

// CmdInit returns the command to create the reward pool
func CmdInit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the reward pool (module authority only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgInit{Authority: clientCtx.GetFromAddress().String()}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdEnter returns the command to enter the pool with the sender's stake
func CmdEnter() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enter",
		Short: "Enter the reward pool with your current stake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgEnter{Staker: clientCtx.GetFromAddress().String()}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdAddFee returns the command to pay fee income into the pool
func CmdAddFee() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-fee [amount]",
		Short: "Pay fee income into the reward pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %v", err)
			}

			msg := &types.MsgAddFee{
				Payer:  clientCtx.GetFromAddress().String(),
				Amount: amount,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClaim returns the command to claim accrued fees
func CmdClaim() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim accrued fees and leave the reward pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgClaim{Staker: clientCtx.GetFromAddress().String()}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClose returns the command to close an entry without claiming
func CmdClose() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close [owner]",
		Short: "Close a reward entry, forfeiting accrued fees",
		Long: `Close a reward entry, forfeiting accrued fees to the remaining holders.
Without an owner argument the sender's own entry is closed. Another owner's
entry can only be closed once their stake is withdrawing or gone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			from := clientCtx.GetFromAddress().String()
			owner := from
			if len(args) == 1 {
				owner = args[0]
			}

			msg := &types.MsgClose{Authority: from, Owner: owner}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}
			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
