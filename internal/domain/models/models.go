package models

import "time"

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type UpdateUserRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6,max=100"`
}

// AuthPayload is returned by register, login and profile updates.
type AuthPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
}

type Task struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Title       string    `json:"title" gorm:"not null" validate:"required,min=3,max=100"`
	Description string    `json:"description" gorm:"not null" validate:"required,max=500"`
	Status      Status    `json:"status" gorm:"type:text;not null;default:pending;index:idx_tasks_owner_status,priority:2;check:chk_tasks_status,status IN ('pending','in-progress','completed')" validate:"required,taskstatus"`
	DueDate     time.Time `json:"due_date" gorm:"not null" validate:"required"`
	OwnerID     string    `json:"owner" gorm:"type:text;not null;index:idx_tasks_owner_status,priority:1" validate:"required"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Owner exists for the gorm schema only; it is never loaded.
	Owner *User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" validate:"-"`
}

// CreateTaskRequest keeps due_date and status as pointers so that an absent
// field can be told apart from a zero value.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,taskstatus"`
	DueDate     *time.Time `json:"due_date" validate:"required"`
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,taskstatus"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}

// TaskFilter scopes a listing to one owner and, optionally, one status.
type TaskFilter struct {
	OwnerID string
	Status  *Status
}
