// pkg/constants/constants.go
package constants

//============== ROLES ==============

type Role string

const (
	RoleUser       Role = "USER"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleManager, RoleTechnician:
		return true
	}
	return false
}

//============== CACHE KEYS ==============

const (
	// Формат: login_attempts:<email> -> количество неудачных попыток
	CacheKeyLoginAttempts = "login_attempts:%s"

	// Формат: request_stats:<scope>, scope = "all" или "team:<id>"
	CacheKeyRequestStats = "request_stats:%s"

	// Все ключи статистики, которые сбрасываются при изменении заявок.
	CacheKeyRequestStatsPattern = "request_stats:*"
)

// AvatarURLTemplate - аватар по умолчанию при регистрации.
const AvatarURLTemplate = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"
