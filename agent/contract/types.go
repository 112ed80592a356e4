package contract

import "time"

type AgentRole string

const (
	AgentRoleInterpreter AgentRole = "interpreter"
	AgentRoleRenderer    AgentRole = "renderer"
)

// IntentType is the closed set of query purposes the interpreter may emit.
type IntentType string

const (
	IntentInventoryQuery      IntentType = "inventory_query"
	IntentProductSearch       IntentType = "product_search"
	IntentInventoryManagement IntentType = "inventory_management"
	IntentAnalytics           IntentType = "analytics"
	IntentSupplierQuery       IntentType = "supplier_query"
	IntentPriceQuery          IntentType = "price_query"
	IntentLowStockAlert       IntentType = "low_stock_alert"
	IntentInventoryHistory    IntentType = "inventory_history"
	IntentHelp                IntentType = "help_capabilities"
	IntentGeneral             IntentType = "general"
)

var ValidIntents = map[IntentType]bool{
	IntentInventoryQuery:      true,
	IntentProductSearch:       true,
	IntentInventoryManagement: true,
	IntentAnalytics:           true,
	IntentSupplierQuery:       true,
	IntentPriceQuery:          true,
	IntentLowStockAlert:       true,
	IntentInventoryHistory:    true,
	IntentHelp:                true,
	IntentGeneral:             true,
}

// Entities is the typed record extracted from one query. The interpreter
// converts the model's untyped JSON entity map into this struct at the
// schema boundary; downstream code never touches raw JSON.
type Entities struct {
	ProductRef   string `json:"product_ref,omitempty"`
	SKU          string `json:"sku,omitempty"`
	Quantity     int64  `json:"quantity,omitempty"`
	HasQuantity  bool   `json:"has_quantity,omitempty"`
	Action       string `json:"action,omitempty"`
	Category     string `json:"category,omitempty"`
	Supplier     string `json:"supplier,omitempty"`
	Days         int    `json:"days,omitempty"`
	MovementType string `json:"movement_type,omitempty"`
}

// IntentResult is produced once per query and immutable afterwards.
type IntentResult struct {
	Intent                IntentType `json:"intent"`
	Confidence            float64    `json:"confidence"`
	Entities              Entities   `json:"entities"`
	NeedsClarification    bool       `json:"needs_clarification,omitempty"`
	ClarificationQuestion string     `json:"clarification_question,omitempty"`

	// ContextApplied marks that the product reference was substituted from
	// conversation context rather than extracted from the query text.
	ContextApplied bool `json:"context_applied,omitempty"`
}

// ActionType tags the payload variant carried by an ActionResult.
type ActionType string

const (
	ActionProductStock      ActionType = "product_stock"
	ActionProductList       ActionType = "product_list"
	ActionInventoryOverview ActionType = "inventory_overview"
	ActionStockChange       ActionType = "stock_change"
	ActionAnalyticsReport   ActionType = "analytics_report"
	ActionSupplierInfo      ActionType = "supplier_info"
	ActionPriceInfo         ActionType = "price_info"
	ActionLowStockReport    ActionType = "low_stock_report"
	ActionMovementHistory   ActionType = "movement_history"
	ActionCapabilities      ActionType = "capabilities"
	ActionClarification     ActionType = "clarification"
	ActionError             ActionType = "error"
)

// ActionResult is the executor's outcome for one intent. Success=false with
// a message covers ordinary negatives (not found, insufficient stock);
// infrastructure faults never ride in here, they surface as errors.
type ActionResult struct {
	Success bool       `json:"success"`
	Action  ActionType `json:"action"`
	Message string     `json:"message"`

	// Payload holds one of the typed payload structs declared by the action
	// package, tagged by Action. Nil for pure-message results.
	Payload any `json:"payload,omitempty"`
}

// TurnSummary is the compact view of a past turn handed to the interpreter.
type TurnSummary struct {
	Query    string     `json:"query"`
	Intent   IntentType `json:"intent,omitempty"`
	Response string     `json:"response,omitempty"`
}

// Snapshot is the conversation context captured for one query before
// interpretation. RecentEntities is newest-first; Candidate is set only
// when the query carries a contextual marker and a prior entity exists.
type Snapshot struct {
	HasHistory     bool          `json:"has_history"`
	HasReference   bool          `json:"has_reference"`
	Candidate      string        `json:"candidate,omitempty"`
	RecentEntities []string      `json:"recent_entities,omitempty"`
	RecentTurns    []TurnSummary `json:"recent_turns,omitempty"`
	CatalogHints   []string      `json:"catalog_hints,omitempty"`
	CapturedAt     time.Time     `json:"captured_at"`
}
