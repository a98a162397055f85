package savings

import (
	"fmt"

	"nestchain/core/types"
	"nestchain/crypto"
)

// engineState abstracts the subset of state manager functionality required by
// the savings engine: raw record storage plus balance accounts for custody
// transfers.
type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

var (
	accountPrefix    = []byte("savings/account/")
	reputationPrefix = []byte("savings/reputation/")
	activityPrefix   = []byte("savings/activity/")
	historyPrefix    = []byte("savings/history/")
	paramsKey        = []byte("savings/params")
	eventLogKey      = []byte("savings/events")
	rateLogKey       = []byte("savings/rates")
)

func accountKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", accountPrefix, owner))
}

func reputationKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", reputationPrefix, owner))
}

func activityKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", activityPrefix, owner))
}

func historyKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", historyPrefix, owner))
}
