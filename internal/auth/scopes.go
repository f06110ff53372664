package auth

// Known OAuth scopes used by the credit ledger service.
const (
	ScopeLogsRead     = "logs:read"
	ScopeLogsWrite    = "logs:write"
	ScopeCreditsRead  = "credits:read"
	ScopePayoutsWrite = "payouts:write"
	ScopeCreditsAdmin = "credits:admin"
)
