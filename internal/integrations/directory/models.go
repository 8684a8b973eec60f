package directory

// Resource модель ресурса (объекта недвижимости) из справочника
type Resource struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Title    string `json:"title"`
	Address  string `json:"address"`
	Active   bool   `json:"active"`
}

// User модель пользователя из справочника
type User struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// ErrorResponse модель ошибки от справочника
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
