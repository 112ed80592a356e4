package orchestratornode

import contractx "github.com/sirawit-b/stocktalk/agent/contract"

// NeedsClarification decides the reply path for an interpreted query.
// General intents always clarify, whatever the model reported.
func NeedsClarification(res contractx.IntentResult) bool {
	return res.NeedsClarification || res.Intent == contractx.IntentGeneral
}
