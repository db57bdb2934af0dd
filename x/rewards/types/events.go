package types

// Event types
const (
	EventTypeInit   = "rewards_init"
	EventTypeEnter  = "rewards_enter"
	EventTypeAddFee = "rewards_add_fee"
	EventTypeClaim  = "rewards_claim"
	EventTypeClose  = "rewards_close"
)

// Event attribute keys
const (
	AttributeKeyOwner     = "owner"
	AttributeKeyPayer     = "payer"
	AttributeKeyCloser    = "closer"
	AttributeKeyPrincipal = "principal"
	AttributeKeyShares    = "shares"
	AttributeKeyAmount    = "amount"
	AttributeKeyEarned    = "earned"
	AttributeKeyForfeited = "forfeited"
	AttributeKeyRate      = "rate"
)
