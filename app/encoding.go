package app

import (
	"fmt"

	"cosmossdk.io/core/address"
	"cosmossdk.io/x/tx/signing"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	addresscodec "github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/x/auth/tx"
	"github.com/cosmos/gogoproto/proto"

	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

// EncodingConfig holds the codecs shared by the app and the rewardsd CLI
type EncodingConfig struct {
	InterfaceRegistry types.InterfaceRegistry
	Codec             codec.Codec
	TxConfig          client.TxConfig
	Amino             *codec.LegacyAmino
}

// addressCodecs returns the account, validator and consensus address codecs
// for the bech32 prefixes configured on the SDK
func addressCodecs() (acc, val, cons address.Codec) {
	cfg := sdk.GetConfig()
	return addresscodec.NewBech32Codec(cfg.GetBech32AccountAddrPrefix()),
		addresscodec.NewBech32Codec(cfg.GetBech32ValidatorAddrPrefix()),
		addresscodec.NewBech32Codec(cfg.GetBech32ConsensusAddrPrefix())
}

// MakeEncodingConfig builds the app codecs. It panics if a rewards msg does
// not resolve by its type URL.
func MakeEncodingConfig() EncodingConfig {
	accCodec, valCodec, _ := addressCodecs()
	signingOptions := signing.Options{
		AddressCodec:          accCodec,
		ValidatorAddressCodec: valCodec,
	}

	registry, err := types.NewInterfaceRegistryWithOptions(types.InterfaceRegistryOptions{
		ProtoFiles:     proto.HybridResolver,
		SigningOptions: signingOptions,
	})
	if err != nil {
		panic(err)
	}
	std.RegisterInterfaces(registry)
	ModuleBasics.RegisterInterfaces(registry)
	if err := checkRewardsMsgs(registry); err != nil {
		panic(err)
	}

	cdc := codec.NewProtoCodec(registry)
	txCfg, err := tx.NewTxConfigWithOptions(cdc, tx.ConfigOptions{
		EnabledSignModes: tx.DefaultSignModes,
		SigningOptions:   &signingOptions,
	})
	if err != nil {
		panic(err)
	}

	amino := codec.NewLegacyAmino()
	std.RegisterLegacyAminoCodec(amino)
	ModuleBasics.RegisterLegacyAminoCodec(amino)

	return EncodingConfig{
		InterfaceRegistry: registry,
		Codec:             cdc,
		TxConfig:          txCfg,
		Amino:             amino,
	}
}

// checkRewardsMsgs makes sure the registry resolves every rewards msg. The
// msgs are hand-written and have no proto descriptors, so the registry's
// type URL map is the only place they can be found.
func checkRewardsMsgs(registry types.InterfaceRegistry) error {
	for _, msg := range rewardstypes.Msgs() {
		typeURL := sdk.MsgTypeURL(msg)
		if _, err := registry.Resolve(typeURL); err != nil {
			return fmt.Errorf("rewards msg %s: %w", typeURL, err)
		}
	}
	return nil
}
