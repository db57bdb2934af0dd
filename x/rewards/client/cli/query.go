package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// GetQueryCmd returns the cli query commands for the rewards module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the rewards module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryParams(),
		CmdQueryEntry(),
		CmdQueryClaimable(),
	)

	return cmd
}

func queryPool(clientCtx client.Context) (*types.Pool, error) {
	bz, _, err := clientCtx.QueryStore(types.PoolKey, types.StoreKey)
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, types.ErrNotInitialized
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func queryEntry(clientCtx client.Context, owner string) (*types.ParticipantShare, error) {
	addr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner address: %v", err)
	}
	bz, _, err := clientCtx.QueryStore(types.EntryKey(addr), types.StoreKey)
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrEntryNotFound, owner)
	}
	var entry types.ParticipantShare
	if err := json.Unmarshal(bz, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// CmdQueryPool returns the command to query the pool totals
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Query the reward pool totals and rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			pool, err := queryPool(clientCtx)
			if err != nil {
				return err
			}
			return printJSON(pool)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryParams returns the command to query the module parameters
func CmdQueryParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Query the rewards module parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			bz, _, err := clientCtx.QueryStore(types.ParamsKey, types.StoreKey)
			if err != nil {
				return err
			}
			params := types.DefaultParams()
			if len(bz) > 0 {
				if err := json.Unmarshal(bz, &params); err != nil {
					return err
				}
			}
			return printJSON(params)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryEntry returns the command to query a participant's entry
func CmdQueryEntry() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry [owner]",
		Short: "Query a participant's reward entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			entry, err := queryEntry(clientCtx, args[0])
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryClaimable returns the command to query what a claim would pay now
func CmdQueryClaimable() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimable [owner]",
		Short: "Query the fees a participant would receive by claiming now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			pool, err := queryPool(clientCtx)
			if err != nil {
				return err
			}
			entry, err := queryEntry(clientCtx, args[0])
			if err != nil {
				return err
			}
			value, earned, err := entry.Earned(pool)
			if err != nil {
				return err
			}
			return printJSON(types.QueryClaimableResponse{
				Owner:  entry.Owner,
				Value:  value.String(),
				Earned: earned.String(),
			})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
