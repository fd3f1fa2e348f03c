package models

// Request models
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterAssetRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CategoryID  *int64 `json:"categoryId"`
}

type UpdateAssetRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CategoryID  *int64 `json:"categoryId"`
}

type IssueRequest struct {
	EmployeeID int64 `json:"employeeId" binding:"required"`
}

type ReturnRequest struct {
	// EmployeeID defaults to the employee the asset was issued to
	EmployeeID     int64  `json:"employeeId"`
	ConditionNotes string `json:"conditionNotes"`
}

type BulkIssueRequest struct {
	AssetIDs   []int64 `json:"assetIds" binding:"required,min=1"`
	EmployeeID int64   `json:"employeeId" binding:"required"`
}

type BulkReturnRequest struct {
	AssetIDs       []int64 `json:"assetIds" binding:"required,min=1"`
	EmployeeID     int64   `json:"employeeId"`
	ConditionNotes string  `json:"conditionNotes"`
}

type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`
	// Password is left unchanged when empty
	Password string `json:"password" binding:"omitempty,min=6"`
}

type PurgeRequest struct {
	Password string `json:"password" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    int64  `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type DataResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type BulkResponse struct {
	Status string      `json:"status"`
	Result *BulkResult `json:"result"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
