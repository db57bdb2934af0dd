package types

// Module name and store key
const (
	ModuleName = "rewards"
	StoreKey   = ModuleName
	RouterKey  = ModuleName

	// VaultName is the module account holding fee income until it is claimed
	VaultName = ModuleName
)

// Store key prefixes
var (
	PoolKey        = []byte{0x01}
	EntryKeyPrefix = []byte{0x02}
	ParamsKey      = []byte{0x03}
)

// EntryKey returns the store key of the ParticipantShare owned by addr
func EntryKey(owner []byte) []byte {
	key := make([]byte, 0, len(EntryKeyPrefix)+len(owner))
	key = append(key, EntryKeyPrefix...)
	return append(key, owner...)
}
