package dto

// TeamCreateRequest payload for new teams.
type TeamCreateRequest struct {
	Name string `json:"name"`
}

// MemberRoleRequest adds a member or changes their role.
type MemberRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ItemCreateRequest payload for inventory entries.
type ItemCreateRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
