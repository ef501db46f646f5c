package domain

import (
	"context"
	"errors"
	"time"
)

// 领域错误：transport 层据此映射状态码
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already exists")
)

// User 用户记录。Email 用指针：未填时存 NULL，
// 唯一索引只约束真实存在的邮箱（多条 NULL 不冲突）。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Email     *string   `gorm:"uniqueIndex;size:191" json:"email,omitempty"`
	Age       int       `gorm:"not null" json:"age"`
	Address   string    `gorm:"size:255" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// ListQuery 列表查询条件（offset/limit 已由上层换算好）
type ListQuery struct {
	Search string
	Offset int
	Limit  int
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	// EmailTaken 检查邮箱是否已被 excludeID 之外的记录占用（excludeID=0 不排除任何记录）
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	List(ctx context.Context, q ListQuery) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uint) (bool, error)
}
