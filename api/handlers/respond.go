package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// errorStatus maps a ledger error to its HTTP status and error code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, rewardstypes.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address"
	case errors.Is(err, rewardstypes.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, rewardstypes.ErrEntryNotFound):
		return http.StatusNotFound, "entry_not_found"
	case errors.Is(err, rewardstypes.ErrStakeNotFound):
		return http.StatusNotFound, "stake_not_found"
	case errors.Is(err, rewardstypes.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, rewardstypes.ErrNotInitialized):
		return http.StatusConflict, "not_initialized"
	case errors.Is(err, rewardstypes.ErrAlreadyInitialized):
		return http.StatusConflict, "already_initialized"
	case errors.Is(err, rewardstypes.ErrDuplicateEntry):
		return http.StatusConflict, "duplicate_entry"
	case errors.Is(err, rewardstypes.ErrAlreadyWithdrawing):
		return http.StatusConflict, "already_withdrawing"
	case errors.Is(err, rewardstypes.ErrPrincipalDecreased):
		return http.StatusConflict, "principal_decreased"
	case errors.Is(err, sdkerrors.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case rewardstypes.IsInternal(err):
		return http.StatusInternalServerError, "ledger_violation"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
