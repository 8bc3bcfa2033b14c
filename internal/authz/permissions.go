// internal/authz/permissions.go
package authz

// --- ДЕЙСТВИЯ, ДЛЯ КОТОРЫХ ЕСТЬ ПОЛИТИКА ---

const (
	// Заявки
	RequestsCreate   = "requests:create"
	RequestsStage    = "requests:stage"
	RequestsAssign   = "requests:assign"
	RequestsComplete = "requests:complete"
	RequestsUpdate   = "requests:update"
	RequestsDelete   = "requests:delete"
	RequestsExport   = "requests:export"

	// Справочники, доступные только менеджеру
	TeamsManage     = "teams:manage"
	EquipmentManage = "equipment:manage"
	UsersRoleUpdate = "users:role:update"
)
